package noop

import (
	"context"

	"github.com/gxo-labs/gxotel/internal/registry"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
)

// Name is the registry name of the no-op provider.
const Name = "noop"

// SpanKey and BaggageKey hold the span and baggage of a no-op Context.
// Backends installed later read them to carry that state over.
var (
	SpanKey    = gxotel.NewContextKey("gxotel noop span")
	BaggageKey = gxotel.NewContextKey("gxotel noop baggage")
)

// activeContextKey carries the active gxotel.Context inside a context.Context.
type activeContextKey struct{}

// Provider is the inert provider. Its context operations are faithful
// in-memory implementations so values round-trip even with tracing off.
type Provider struct{}

// DefaultProvider is the shared no-op provider.
var DefaultProvider = &Provider{}

func init() {
	registry.Register(Name, func() (gxotel.Provider, error) { return DefaultProvider, nil })
}

// Name returns "noop".
func (p *Provider) Name() string { return Name }

// Init returns a no-op telemetry. It never fails.
func (p *Provider) Init(_ context.Context, name string, _ gxotel.Config) (gxotel.Telemetry, error) {
	return NewTelemetry(name), nil
}

// ActiveSpan returns the span stored in the active context of ctx.
func (p *Provider) ActiveSpan(ctx context.Context) gxotel.Span {
	return p.SpanFromContext(p.ActiveContext(ctx))
}

// ContextWithSpan returns c with span stored under SpanKey.
func (p *Provider) ContextWithSpan(c gxotel.Context, span gxotel.Span) gxotel.Context {
	return orRoot(c).SetValue(SpanKey, span)
}

// SpanFromContext returns the span in c, or DefaultSpan.
func (p *Provider) SpanFromContext(c gxotel.Context) gxotel.Span {
	if span, ok := orRoot(c).GetValue(SpanKey).(gxotel.Span); ok && span != nil {
		return span
	}
	return DefaultSpan
}

// ContextWithBaggage returns c with b stored under BaggageKey.
func (p *Provider) ContextWithBaggage(c gxotel.Context, b gxotel.Baggage) gxotel.Context {
	return orRoot(c).SetValue(BaggageKey, b)
}

// BaggageFromContext returns the baggage in c, or the empty baggage.
func (p *Provider) BaggageFromContext(c gxotel.Context) gxotel.Baggage {
	if b, ok := orRoot(c).GetValue(BaggageKey).(gxotel.Baggage); ok && b != nil {
		return b
	}
	return emptyBaggage
}

// ActiveContext returns the Context set by SetActiveContext, or the root.
func (p *Provider) ActiveContext(ctx context.Context) gxotel.Context {
	if ctx != nil {
		if c, ok := ctx.Value(activeContextKey{}).(gxotel.Context); ok && c != nil {
			return c
		}
	}
	return rootContext
}

// SetActiveContext returns a child of ctx carrying c.
func (p *Provider) SetActiveContext(ctx context.Context, c gxotel.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, activeContextKey{}, orRoot(c))
}

// With runs fn with c active.
func (p *Provider) With(ctx context.Context, c gxotel.Context, fn func(ctx context.Context) error) error {
	return fn(p.SetActiveContext(ctx, c))
}

// WithAsync runs fn on a new goroutine with c active.
func (p *Provider) WithAsync(ctx context.Context, c gxotel.Context, fn func(ctx context.Context) error) *gxotel.Future[struct{}] {
	return gxotel.Go(p.SetActiveContext(ctx, c), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// RootContext returns the shared empty context.
func (p *Provider) RootContext() gxotel.Context { return rootContext }

// EmptyBaggage returns the shared empty baggage.
func (p *Provider) EmptyBaggage() gxotel.Baggage { return emptyBaggage }

func orRoot(c gxotel.Context) gxotel.Context {
	if c == nil {
		return rootContext
	}
	return c
}

var _ gxotel.Provider = (*Provider)(nil)

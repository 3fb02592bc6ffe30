// Package facade provides the Telemetry handed to host code before the real
// backend is known, and the Manager that upgrades it in the background.
package facade

import (
	"context"
	"sync/atomic"

	"github.com/gxo-labs/gxotel/internal/noop"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
)

type backend struct {
	tel gxotel.Telemetry
	api gxotel.ContextAPI
}

// Facade forwards every call to its current backend, which starts as no-op
// and may be swapped once for a real one. References obtained from the
// backend (tracers, spans, contexts) keep the behavior they were created
// with; wrappers made by TraceMethod and TraceClass look the backend up on
// every call.
type Facade struct {
	name    string
	current atomic.Pointer[backend]
}

// New returns a facade named name backed by no-op telemetry.
func New(name string) *Facade {
	f := &Facade{name: name}
	f.current.Store(&backend{tel: noop.NewTelemetry(name), api: noop.DefaultProvider})
	return f
}

// swap installs tel and api as the backend.
func (f *Facade) swap(tel gxotel.Telemetry, api gxotel.ContextAPI) {
	f.current.Store(&backend{tel: tel, api: api})
}

func (f *Facade) load() *backend { return f.current.Load() }

// Backend returns the telemetry currently served.
func (f *Facade) Backend() gxotel.Telemetry { return f.load().tel }

// Name returns the name passed to New.
func (f *Facade) Name() string { return f.name }

// Tracer returns the tracer of the current backend.
func (f *Facade) Tracer() gxotel.Tracer { return f.load().tel.Tracer() }

// IsActive reports whether the current backend records spans.
func (f *Facade) IsActive() bool { return f.load().tel.IsActive() }

// Shutdown shuts the current backend down.
func (f *Facade) Shutdown(ctx context.Context) error { return f.load().tel.Shutdown(ctx) }

// TraceMethod wraps fn in a span produced by whichever backend is current
// when the wrapper is called.
func (f *Facade) TraceMethod(fn gxotel.Operation, opts ...gxotel.TraceOption) gxotel.Operation {
	return gxotel.Trace(f, fn, opts...)
}

// TraceClass returns target unchanged while tracing is inactive or, with the
// default skip option, while ctx carries no valid span. Otherwise the traced
// variant resolves tracers through the facade on every call.
func (f *Facade) TraceClass(ctx context.Context, target gxotel.Traceable, opts ...gxotel.TraceOption) gxotel.Traceable {
	if target == nil {
		return nil
	}
	b := f.load()
	if !b.tel.IsActive() {
		return target
	}
	cfg := gxotel.NewTraceConfig(opts...)
	if cfg.SkipIfNoActiveSpan && (ctx == nil || !b.api.ActiveSpan(ctx).SpanContext().IsValid()) {
		return target
	}
	return target.WithTracing(gxotel.NewDecorator(f, target, opts...))
}

// ActiveSpan returns the span active in ctx.
func (f *Facade) ActiveSpan(ctx context.Context) gxotel.Span { return f.load().api.ActiveSpan(ctx) }

// ContextWithSpan returns c with span as its current span.
func (f *Facade) ContextWithSpan(c gxotel.Context, span gxotel.Span) gxotel.Context {
	return f.load().api.ContextWithSpan(c, span)
}

// SpanFromContext returns the span stored in c.
func (f *Facade) SpanFromContext(c gxotel.Context) gxotel.Span {
	return f.load().api.SpanFromContext(c)
}

// ContextWithBaggage returns c carrying b.
func (f *Facade) ContextWithBaggage(c gxotel.Context, b gxotel.Baggage) gxotel.Context {
	return f.load().api.ContextWithBaggage(c, b)
}

// BaggageFromContext returns the baggage stored in c.
func (f *Facade) BaggageFromContext(c gxotel.Context) gxotel.Baggage {
	return f.load().api.BaggageFromContext(c)
}

// ActiveContext returns the Context active in ctx.
func (f *Facade) ActiveContext(ctx context.Context) gxotel.Context {
	return f.load().api.ActiveContext(ctx)
}

// SetActiveContext returns a child of ctx in which c is active.
func (f *Facade) SetActiveContext(ctx context.Context, c gxotel.Context) context.Context {
	return f.load().api.SetActiveContext(ctx, c)
}

// With runs fn with c active.
func (f *Facade) With(ctx context.Context, c gxotel.Context, fn func(ctx context.Context) error) error {
	return f.load().api.With(ctx, c, fn)
}

// WithAsync runs fn on a new goroutine with c active.
func (f *Facade) WithAsync(ctx context.Context, c gxotel.Context, fn func(ctx context.Context) error) *gxotel.Future[struct{}] {
	return f.load().api.WithAsync(ctx, c, fn)
}

// RootContext returns the empty Context of the current backend.
func (f *Facade) RootContext() gxotel.Context { return f.load().api.RootContext() }

// EmptyBaggage returns the empty baggage of the current backend.
func (f *Facade) EmptyBaggage() gxotel.Baggage { return f.load().api.EmptyBaggage() }

var (
	_ gxotel.Telemetry  = (*Facade)(nil)
	_ gxotel.ContextAPI = (*Facade)(nil)
)

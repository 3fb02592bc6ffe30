package otelprovider

import (
	"context"

	"github.com/gxo-labs/gxotel/internal/noop"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/trace"
)

// deletedValue shadows a key removed with DeleteValue.
type deletedValue struct{}

// Context is a gxotel.Context stored in a context.Context, so OpenTelemetry
// span and baggage values live side by side with user keys.
type Context struct {
	ctx context.Context
}

var rootContext = &Context{ctx: context.Background()}

// GetValue returns the value stored under key, or nil.
func (c *Context) GetValue(key gxotel.ContextKey) any {
	v := c.ctx.Value(key)
	if _, gone := v.(deletedValue); gone {
		return nil
	}
	return v
}

// SetValue returns a child of c with key set.
func (c *Context) SetValue(key gxotel.ContextKey, value any) gxotel.Context {
	return &Context{ctx: context.WithValue(c.ctx, key, value)}
}

// DeleteValue returns a child of c in which key reads as nil.
func (c *Context) DeleteValue(key gxotel.ContextKey) gxotel.Context {
	return &Context{ctx: context.WithValue(c.ctx, key, deletedValue{})}
}

// Unwrap returns the backing context.Context.
func (c *Context) Unwrap() context.Context { return c.ctx }

// asContext returns c as a *Context. Contexts built by the no-op backend
// before an upgrade are rebuilt; other foreign contexts map to the root.
func asContext(c gxotel.Context) *Context {
	switch v := c.(type) {
	case *Context:
		if v != nil {
			return v
		}
	case *noop.Context:
		if v != nil {
			return fromNoopContext(v)
		}
	}
	return rootContext
}

// fromNoopContext copies the entries of nc onto a background context. The
// stored span and baggage become their OpenTelemetry counterparts.
func fromNoopContext(nc *noop.Context) *Context {
	ctx := context.Background()
	nc.Range(func(key gxotel.ContextKey, value any) bool {
		switch key {
		case noop.SpanKey:
			if s, ok := value.(*Span); ok && s != nil {
				ctx = trace.ContextWithSpan(ctx, s.span)
			} else if span, ok := value.(gxotel.Span); ok && span != nil {
				ctx = trace.ContextWithSpanContext(ctx, toOtelSpanContext(span.SpanContext()))
			}
		case noop.BaggageKey:
			if b, ok := value.(gxotel.Baggage); ok {
				ctx = baggage.ContextWithBaggage(ctx, toOtelBaggage(b))
			}
		default:
			ctx = context.WithValue(ctx, key, value)
		}
		return true
	})
	return &Context{ctx: ctx}
}

// overlayContext resolves values from overlay first and parent second, and
// takes cancellation from parent.
type overlayContext struct {
	context.Context
	overlay context.Context
}

// Value looks key up in the overlay, then the parent.
func (o *overlayContext) Value(key any) any {
	if v := o.overlay.Value(key); v != nil {
		return v
	}
	return o.Context.Value(key)
}

// activate returns a child of parent in which c is active. The span and
// baggage of c replace those of parent even when c has none.
func activate(parent context.Context, c gxotel.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	oc := asContext(c)
	var out context.Context = &overlayContext{Context: parent, overlay: oc.ctx}
	out = trace.ContextWithSpan(out, trace.SpanFromContext(oc.ctx))
	return baggage.ContextWithBaggage(out, baggage.FromContext(oc.ctx))
}

var _ gxotel.Context = (*Context)(nil)

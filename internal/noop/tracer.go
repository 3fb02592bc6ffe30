package noop

import (
	"context"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
)

// Tracer hands out DefaultSpan for every request.
type Tracer struct {
	name string
}

// NewTracer returns a no-op tracer remembering name.
func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// Name returns the name the tracer was created with.
func (t *Tracer) Name() string { return t.name }

// StartSpan returns ctx unchanged and DefaultSpan.
func (t *Tracer) StartSpan(ctx context.Context, _ string, _ ...gxotel.SpanOption) (context.Context, gxotel.Span) {
	return ctx, DefaultSpan
}

// StartActiveSpan still runs fn, synchronously, so callers relying on the
// callback keep working with tracing off.
func (t *Tracer) StartActiveSpan(ctx context.Context, _ string, fn func(ctx context.Context, span gxotel.Span) error, _ ...gxotel.SpanOption) error {
	return fn(ctx, DefaultSpan)
}

var _ gxotel.Tracer = (*Tracer)(nil)

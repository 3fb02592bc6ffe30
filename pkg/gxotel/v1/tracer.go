package v1

import "context"

// Tracer creates spans.
type Tracer interface {
	// StartSpan starts a span whose parent is the span active in ctx (unless
	// WithNewRoot is given). The returned context carries the new span; the
	// caller decides whether to use it.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)

	// StartActiveSpan starts a span and invokes fn synchronously with a
	// context in which the span is active. It returns whatever fn returns and
	// lets panics from fn propagate. The span is not ended automatically.
	StartActiveSpan(ctx context.Context, name string, fn func(ctx context.Context, span Span) error, opts ...SpanOption) error
}

// ActiveSpanValue is StartActiveSpan for callbacks that produce a value.
func ActiveSpanValue[T any](ctx context.Context, tracer Tracer, name string, fn func(ctx context.Context, span Span) (T, error), opts ...SpanOption) (T, error) {
	var result T
	err := tracer.StartActiveSpan(ctx, name, func(ctx context.Context, span Span) error {
		var fnErr error
		result, fnErr = fn(ctx, span)
		return fnErr
	}, opts...)
	return result, err
}

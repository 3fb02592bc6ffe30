package otelprovider

import (
	"context"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	"go.opentelemetry.io/otel/trace"
)

// Tracer forwards to an OpenTelemetry tracer.
type Tracer struct {
	name     string
	tracer   trace.Tracer
	redactor *redactor
}

// Name returns the name of the owning telemetry.
func (t *Tracer) Name() string { return t.name }

// StartSpan starts a span as a child of the span in ctx.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...gxotel.SpanOption) (context.Context, gxotel.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := gxotel.NewSpanConfig(opts...)

	startOpts := []trace.SpanStartOption{trace.WithSpanKind(toOtelKind(cfg.Kind))}
	if len(cfg.Attributes) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(t.redactor.attributes(toKeyValues(cfg.Attributes))...))
	}
	if !cfg.StartTime.IsZero() {
		startOpts = append(startOpts, trace.WithTimestamp(cfg.StartTime))
	}
	if cfg.NewRoot {
		startOpts = append(startOpts, trace.WithNewRoot())
	}

	spanCtx, span := t.tracer.Start(ctx, name, startOpts...)
	return spanCtx, wrapSpan(span, t.redactor)
}

// StartActiveSpan starts a span and runs fn with it active. fn must end it.
func (t *Tracer) StartActiveSpan(ctx context.Context, name string, fn func(ctx context.Context, span gxotel.Span) error, opts ...gxotel.SpanOption) error {
	spanCtx, span := t.StartSpan(ctx, name, opts...)
	return fn(spanCtx, span)
}

var _ gxotel.Tracer = (*Tracer)(nil)

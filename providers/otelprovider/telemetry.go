package otelprovider

import (
	"context"
	"sync"
	"sync/atomic"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry is the OpenTelemetry-backed gxotel.Telemetry.
type Telemetry struct {
	name     string
	sdk      *sdktrace.TracerProvider
	tracer   *Tracer
	storage  *tracetest.InMemoryExporter
	redactor *redactor
	log      gxolog.Logger

	shutdownOnce sync.Once
	shutdownErr  error
	closed       atomic.Bool
}

// Name returns the telemetry name.
func (t *Telemetry) Name() string { return t.name }

// Tracer returns the tracer bound to the SDK provider.
func (t *Telemetry) Tracer() gxotel.Tracer { return t.tracer }

// IsActive is true until Shutdown.
func (t *Telemetry) IsActive() bool { return !t.closed.Load() }

// TracerProvider exposes the SDK provider, e.g. for otel.SetTracerProvider.
func (t *Telemetry) TracerProvider() trace.TracerProvider { return t.sdk }

// TraceMethod wraps fn in a span.
func (t *Telemetry) TraceMethod(fn gxotel.Operation, opts ...gxotel.TraceOption) gxotel.Operation {
	return gxotel.Trace(t, fn, opts...)
}

// TraceClass returns target's traced variant. With the default skip option
// the target is returned unchanged unless ctx carries a valid span.
func (t *Telemetry) TraceClass(ctx context.Context, target gxotel.Traceable, opts ...gxotel.TraceOption) gxotel.Traceable {
	if target == nil {
		return nil
	}
	cfg := gxotel.NewTraceConfig(opts...)
	if cfg.SkipIfNoActiveSpan {
		if !t.IsActive() || ctx == nil || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
			return target
		}
	}
	return target.WithTracing(gxotel.NewDecorator(t, target, opts...))
}

// StoredSpans returns the spans finished so far when the storage exporter
// is enabled, else nil.
func (t *Telemetry) StoredSpans() tracetest.SpanStubs {
	if t.storage == nil {
		return nil
	}
	return t.storage.GetSpans()
}

// ResetStoredSpans drops every stored span.
func (t *Telemetry) ResetStoredSpans() {
	if t.storage != nil {
		t.storage.Reset()
	}
}

// ForceFlush exports every finished span still buffered.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	return t.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the SDK provider together with its processors
// and exporters. Only the first call does any work; later calls return its
// result.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		t.closed.Store(true)
		t.log.Debugf("Shutting down OpenTelemetry tracer provider for '%s'...", t.name)
		if err := t.sdk.Shutdown(ctx); err != nil {
			t.log.Warnf("Error shutting down OpenTelemetry tracer provider: %v", err)
			t.shutdownErr = err
			return
		}
		t.log.Debugf("OpenTelemetry tracing for '%s' shut down.", t.name)
	})
	return t.shutdownErr
}

var _ gxotel.Telemetry = (*Telemetry)(nil)

package noop

import (
	"context"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
)

// Telemetry is the inert facade. TraceMethod and TraceClass return their
// input unchanged.
type Telemetry struct {
	name   string
	tracer *Tracer
}

// NewTelemetry returns a no-op telemetry named name.
func NewTelemetry(name string) *Telemetry {
	return &Telemetry{name: name, tracer: NewTracer(name)}
}

// Name returns the telemetry name.
func (t *Telemetry) Name() string { return t.name }
// Tracer returns a no-op tracer.
func (t *Telemetry) Tracer() gxotel.Tracer { return t.tracer }
// IsActive is always false.
func (t *Telemetry) IsActive() bool { return false }

// TraceMethod returns fn.
func (t *Telemetry) TraceMethod(fn gxotel.Operation, _ ...gxotel.TraceOption) gxotel.Operation {
	return fn
}

// TraceClass returns target.
func (t *Telemetry) TraceClass(_ context.Context, target gxotel.Traceable, _ ...gxotel.TraceOption) gxotel.Traceable {
	return target
}

// Shutdown does nothing.
func (t *Telemetry) Shutdown(context.Context) error { return nil }

var _ gxotel.Telemetry = (*Telemetry)(nil)

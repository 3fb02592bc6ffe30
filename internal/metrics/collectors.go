package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes used as the "outcome" label of gxotel_provider_loads_total.
const (
	OutcomeLoaded   = "loaded"
	OutcomeFallback = "fallback"
	OutcomeDisabled = "disabled"
)

// Collectors holds gxotel's self-monitoring metrics.
type Collectors struct {
	ProviderLoads  *prometheus.CounterVec
	TracingActive  prometheus.Gauge
	Shutdowns      prometheus.Counter
	EventsReceived *prometheus.CounterVec
}

// NewCollectors creates the collectors and registers them with reg. A
// collector that is already registered is reused, so two telemetry managers
// sharing a registry report into the same series.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		ProviderLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "gxotel_provider_loads_total", Help: "Provider load attempts by outcome."},
			[]string{"outcome"},
		),
		TracingActive: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "gxotel_tracing_active", Help: "1 while a real tracing backend is active, else 0."},
		),
		Shutdowns: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "gxotel_shutdowns_total", Help: "Number of telemetry backend shutdowns."},
		),
		EventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "gxotel_lifecycle_events_total", Help: "Lifecycle events observed on the event bus, by type."},
			[]string{"type"},
		),
	}
	if reg == nil {
		return c, nil
	}

	var err error
	if c.ProviderLoads, err = register(reg, c.ProviderLoads); err != nil {
		return nil, err
	}
	if c.TracingActive, err = register(reg, c.TracingActive); err != nil {
		return nil, err
	}
	if c.Shutdowns, err = register(reg, c.Shutdowns); err != nil {
		return nil, err
	}
	if c.EventsReceived, err = register(reg, c.EventsReceived); err != nil {
		return nil, err
	}
	return c, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

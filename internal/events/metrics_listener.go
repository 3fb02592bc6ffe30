package events

import (
	"context"

	"github.com/gxo-labs/gxotel/internal/metrics"
	"github.com/gxo-labs/gxotel/pkg/gxotel/v1/events"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"
)

// MetricsEventListener consumes lifecycle events from a ChannelEventBus and
// updates the Prometheus collectors.
type MetricsEventListener struct {
	bus        *ChannelEventBus
	log        gxolog.Logger
	collectors *metrics.Collectors
}

// NewMetricsEventListener creates a new listener. It panics on nil arguments.
func NewMetricsEventListener(bus *ChannelEventBus, collectors *metrics.Collectors, log gxolog.Logger) *MetricsEventListener {
	if bus == nil || collectors == nil || log == nil {
		panic("MetricsEventListener requires a non-nil ChannelEventBus, Collectors, and Logger")
	}
	return &MetricsEventListener{
		bus:        bus,
		log:        log.With("component", "MetricsEventListener"),
		collectors: collectors,
	}
}

// Start consumes events until the bus is closed or ctx is done. It blocks;
// run it in its own goroutine.
func (l *MetricsEventListener) Start(ctx context.Context) {
	l.log.Debugf("Starting metrics event listener...")
	for {
		select {
		case event, ok := <-l.bus.GetChannel():
			if !ok {
				l.log.Debugf("Event bus channel closed, stopping listener.")
				return
			}
			l.handleEvent(event)
		case <-ctx.Done():
			l.log.Debugf("Context cancelled, stopping metrics event listener.")
			return
		}
	}
}

func (l *MetricsEventListener) handleEvent(event events.Event) {
	l.collectors.EventsReceived.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case events.ProviderLoaded:
		l.collectors.ProviderLoads.WithLabelValues(metrics.OutcomeLoaded).Inc()
	case events.ProviderFallback:
		l.collectors.ProviderLoads.WithLabelValues(metrics.OutcomeFallback).Inc()
	case events.ProviderDisabled:
		l.collectors.ProviderLoads.WithLabelValues(metrics.OutcomeDisabled).Inc()
	case events.TracingActivated:
		l.collectors.TracingActive.Set(1)
	case events.TelemetryShutdown:
		l.collectors.Shutdowns.Inc()
		l.collectors.TracingActive.Set(0)
	}
}

// Package events defines the telemetry lifecycle events and the bus they are
// published on.
package events

import "time"

// EventType represents the type of a lifecycle event.
type EventType string

// Lifecycle event types.
const (
	ProviderLoadStarted EventType = "ProviderLoadStarted" // Loader began resolving a provider
	ProviderLoaded      EventType = "ProviderLoaded"      // Provider resolved and constructed
	ProviderFallback    EventType = "ProviderFallback"    // Load failed; no-op provider used instead
	ProviderDisabled    EventType = "ProviderDisabled"    // Config disabled tracing; no load attempted
	TracingActivated    EventType = "TracingActivated"    // Facade switched to a real backend
	TelemetryShutdown   EventType = "TelemetryShutdown"   // Backend shut down
)

// Event is a single lifecycle occurrence.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Name is the telemetry name the event relates to.
	Name string `json:"name,omitempty"`
	// Provider is the provider registry name, if known.
	Provider string `json:"provider,omitempty"`
	// Payload carries event-specific details. It must not contain header
	// values or other secrets.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Bus publishes lifecycle events.
type Bus interface {
	// Emit publishes event. Implementations must not block the caller for long.
	Emit(event Event)
}

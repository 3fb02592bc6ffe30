package events

import "github.com/gxo-labs/gxotel/pkg/gxotel/v1/events"

// NoOpEventBus discards every event. It is the bus used when the host does
// not subscribe to lifecycle events.
type NoOpEventBus struct{}

// NewNoOpEventBus creates a new instance of the NoOpEventBus.
func NewNoOpEventBus() events.Bus {
	return &NoOpEventBus{}
}

// Emit does nothing.
func (n *NoOpEventBus) Emit(event events.Event) {}

var _ events.Bus = (*NoOpEventBus)(nil)

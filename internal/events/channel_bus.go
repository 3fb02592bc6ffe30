package events

import (
	"sync"
	"sync/atomic"

	"github.com/gxo-labs/gxotel/pkg/gxotel/v1/events"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"
)

const defaultBufferSize = 100

// ChannelEventBus delivers lifecycle events over a buffered channel. Emit
// never blocks: when the buffer is full the event is dropped and counted.
type ChannelEventBus struct {
	channel chan events.Event
	log     gxolog.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewChannelEventBus creates a bus with the given buffer size (100 when
// non-positive). It panics when log is nil.
func NewChannelEventBus(bufferSize int, log gxolog.Logger) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if log == nil {
		panic("ChannelEventBus requires a non-nil logger")
	}

	bus := &ChannelEventBus{
		channel: make(chan events.Event, bufferSize),
		log:     log.With("component", "ChannelEventBus"),
	}
	bus.log.Debugf("ChannelEventBus initialized with buffer size %d", bufferSize)
	return bus
}

// Emit queues event without blocking. Events emitted after Close are ignored.
func (c *ChannelEventBus) Emit(event events.Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.channel <- event:
		c.log.Debugf("Emitted event type '%s'", event.Type)
	default:
		c.dropped.Add(1)
		c.log.Warnf("Event channel buffer full, dropping event type '%s'", event.Type)
	}
}

// Dropped returns how many events were dropped because the buffer was full.
func (c *ChannelEventBus) Dropped() uint64 {
	return c.dropped.Load()
}

// GetChannel returns the channel consumers read events from.
func (c *ChannelEventBus) GetChannel() <-chan events.Event {
	return c.channel
}

// Close closes the channel. It is safe to call more than once.
func (c *ChannelEventBus) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.log.Debugf("Closing ChannelEventBus channel.")
	close(c.channel)
}

var _ events.Bus = (*ChannelEventBus)(nil)

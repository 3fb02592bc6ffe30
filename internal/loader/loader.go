// Package loader resolves telemetry providers by name, at most once per
// distinct (name, configuration) pair, and falls back to the no-op provider
// whenever the requested one cannot be loaded.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	internalevents "github.com/gxo-labs/gxotel/internal/events"
	"github.com/gxo-labs/gxotel/internal/logger"
	"github.com/gxo-labs/gxotel/internal/noop"
	"github.com/gxo-labs/gxotel/internal/registry"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"github.com/gxo-labs/gxotel/pkg/gxotel/v1/events"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"
)

// State is the load state of one cache entry.
type State int

const (
	// StateUnloaded means no load was requested for the key.
	StateUnloaded State = iota
	// StateLoading means a load is in flight.
	StateLoading
	// StateLoaded means the requested provider was resolved.
	StateLoaded
	// StateFallback means the load failed and the no-op provider was used.
	StateFallback
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFallback:
		return "fallback"
	default:
		return "unloaded"
	}
}

type entry struct {
	state  State
	future *gxotel.Future[gxotel.Provider]
}

// Loader owns the provider cache. The zero value is not usable; call New.
type Loader struct {
	registry gxotel.Registry
	fallback gxotel.Provider
	log      gxolog.Logger
	bus      events.Bus

	mu      sync.Mutex
	entries map[string]*entry
}

// Option customizes a Loader.
type Option func(*Loader)

// WithRegistry resolves providers from r instead of registry.Default.
func WithRegistry(r gxotel.Registry) Option {
	return func(l *Loader) {
		if r != nil {
			l.registry = r
		}
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(log gxolog.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithEventBus publishes load lifecycle events to bus.
func WithEventBus(bus events.Bus) Option {
	return func(l *Loader) {
		if bus != nil {
			l.bus = bus
		}
	}
}

// WithFallback replaces the provider used when loading fails or tracing is
// disabled. It defaults to the no-op provider.
func WithFallback(p gxotel.Provider) Option {
	return func(l *Loader) {
		if p != nil {
			l.fallback = p
		}
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		registry: registry.Default,
		fallback: noop.DefaultProvider,
		log:      logger.NewDefaultLogger("warn"),
		bus:      internalevents.NewNoOpEventBus(),
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With("component", "ProviderLoader")
	return l
}

// LoadAsync returns a future for the provider configured by cfg. A
// disabled configuration resolves to the fallback at once without touching
// the registry or the cache. Otherwise the first call for a key starts the
// load and every later call for the same key shares its future. The future
// never rejects: failures settle it with the fallback provider.
func (l *Loader) LoadAsync(name string, cfg gxotel.Config) *gxotel.Future[gxotel.Provider] {
	if !cfg.Enabled {
		l.emit(events.ProviderDisabled, name, cfg.ProviderName(), nil)
		return gxotel.Resolved(l.fallback)
	}

	key := cfg.CanonicalKey(name)
	l.mu.Lock()
	if e, ok := l.entries[key]; ok {
		l.mu.Unlock()
		return e.future
	}
	future, settle := gxotel.NewFuture[gxotel.Provider]()
	e := &entry{state: StateLoading, future: future}
	l.entries[key] = e
	l.mu.Unlock()

	l.emit(events.ProviderLoadStarted, name, cfg.ProviderName(), nil)
	go l.load(name, cfg, e, settle)
	return future
}

// Load is LoadAsync followed by Await. ctx only bounds the wait; the load
// itself keeps running and stays cached.
func (l *Loader) Load(ctx context.Context, name string, cfg gxotel.Config) (gxotel.Provider, error) {
	return l.LoadAsync(name, cfg).Await(ctx)
}

// State reports the load state for name and cfg.
func (l *Loader) State(name string, cfg gxotel.Config) State {
	if !cfg.Enabled {
		return StateUnloaded
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[cfg.CanonicalKey(name)]; ok {
		return e.state
	}
	return StateUnloaded
}

// Clear forgets every cached entry. In-flight loads still settle the futures
// already handed out.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*entry)
}

func (l *Loader) load(name string, cfg gxotel.Config, e *entry, settle func(gxotel.Provider, error)) {
	providerName := cfg.ProviderName()
	start := time.Now()

	provider, err := l.resolve(providerName)
	if err != nil {
		l.warnFallback(name, providerName, err)
		l.setState(e, StateFallback)
		l.emit(events.ProviderFallback, name, providerName, map[string]interface{}{
			"reason":   err.Error(),
			"duration": time.Since(start).String(),
		})
		settle(l.fallback, nil)
		return
	}

	l.log.Debugf("Telemetry provider '%s' loaded for '%s'", providerName, name)
	l.setState(e, StateLoaded)
	l.emit(events.ProviderLoaded, name, providerName, map[string]interface{}{
		"duration": time.Since(start).String(),
	})
	settle(provider, nil)
}

// resolve looks up and invokes the factory for providerName. Factory panics
// become a ProviderLoadError.
func (l *Loader) resolve(providerName string) (provider gxotel.Provider, err error) {
	factory, err := l.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			provider = nil
			err = gxoerrors.NewProviderLoadError(providerName, "factory", gxoerrors.NewPanicError(r))
		}
	}()
	provider, err = factory()
	if err != nil {
		return nil, gxoerrors.NewProviderLoadError(providerName, "factory", err)
	}
	if provider == nil {
		return nil, gxoerrors.NewProviderLoadError(providerName, "factory", fmt.Errorf("factory returned a nil provider"))
	}
	return provider, nil
}

func (l *Loader) warnFallback(name, providerName string, err error) {
	if gxoerrors.IsProviderNotFound(err) {
		hint := registry.InstallHint(providerName)
		if hint == "" {
			hint = "register a provider under that name"
		}
		l.log.Warnf("Telemetry provider '%s' is not available for '%s'; tracing is disabled. To enable it, %s: %v", providerName, name, hint, err)
		return
	}
	l.log.Warnf("Failed to load telemetry provider '%s' for '%s'; falling back to no-op tracing: %v", providerName, name, err)
}

func (l *Loader) setState(e *entry, s State) {
	l.mu.Lock()
	e.state = s
	l.mu.Unlock()
}

func (l *Loader) emit(typ events.EventType, name, providerName string, payload map[string]interface{}) {
	l.bus.Emit(events.Event{
		Type:      typ,
		Timestamp: time.Now(),
		Name:      name,
		Provider:  providerName,
		Payload:   payload,
	})
}

package facade

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	internalevents "github.com/gxo-labs/gxotel/internal/events"
	"github.com/gxo-labs/gxotel/internal/loader"
	"github.com/gxo-labs/gxotel/internal/logger"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"github.com/gxo-labs/gxotel/pkg/gxotel/v1/events"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"
)

// Manager owns the single Facade of an application. Create one in main and
// pass it (or its Facade) to the code that needs tracing.
type Manager struct {
	loader *loader.Loader
	log    gxolog.Logger
	bus    events.Bus

	mu       sync.Mutex
	facade   *Facade
	initDone chan struct{}
	shutdown bool

	active       atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for upgrade warnings.
func WithLogger(log gxolog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithEventBus publishes TracingActivated and TelemetryShutdown to bus.
func WithEventBus(bus events.Bus) Option {
	return func(m *Manager) {
		if bus != nil {
			m.bus = bus
		}
	}
}

// NewManager creates a Manager that loads providers through l. A nil l
// gets a Loader with default settings.
func NewManager(l *loader.Loader, opts ...Option) *Manager {
	if l == nil {
		l = loader.New()
	}
	m := &Manager{
		loader: l,
		log:    logger.NewDefaultLogger("warn"),
		bus:    internalevents.NewNoOpEventBus(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "TelemetryManager")
	return m
}

// Init returns the facade, creating it on the first call. The first call
// returns at once with a no-op backed facade and loads the provider in the
// background; cancelling ctx does not stop that load. Later calls return
// the same facade and ignore their arguments.
func (m *Manager) Init(ctx context.Context, name string, cfg gxotel.Config) *Facade {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.facade != nil {
		if name != m.facade.Name() {
			m.log.Debugf("Telemetry already initialized as '%s'; ignoring Init for '%s'", m.facade.Name(), name)
		}
		return m.facade
	}

	if ctx == nil {
		ctx = context.Background()
	}
	m.facade = New(name)
	m.initDone = make(chan struct{})
	go m.upgrade(context.WithoutCancel(ctx), m.facade, name, cfg, m.initDone)
	return m.facade
}

func (m *Manager) upgrade(ctx context.Context, f *Facade, name string, cfg gxotel.Config, done chan struct{}) {
	defer close(done)

	provider, err := m.loader.LoadAsync(name, cfg).Await(ctx)
	if err != nil {
		m.log.Warnf("Telemetry provider for '%s' could not be loaded; staying on no-op tracing: %v", name, err)
		return
	}

	tel, err := initProvider(ctx, provider, name, cfg)
	if err != nil {
		m.log.Warnf("Telemetry provider '%s' failed to initialize '%s'; staying on no-op tracing: %v", provider.Name(), name, err)
		return
	}

	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		m.log.Warnf("Telemetry for '%s' became ready after shutdown; discarding it", name)
		if err := tel.Shutdown(ctx); err != nil {
			m.log.Warnf("Shutting down late telemetry for '%s' failed: %v", name, err)
		}
		return
	}
	f.swap(tel, provider)
	m.mu.Unlock()

	if tel.IsActive() {
		m.active.Store(true)
		m.bus.Emit(events.Event{
			Type:      events.TracingActivated,
			Timestamp: time.Now(),
			Name:      name,
			Provider:  provider.Name(),
		})
		m.log.Infof("Tracing active for '%s' via provider '%s'", name, provider.Name())
	}
}

// initProvider calls provider.Init, turning a panic into a ProviderLoadError.
func initProvider(ctx context.Context, provider gxotel.Provider, name string, cfg gxotel.Config) (tel gxotel.Telemetry, err error) {
	defer func() {
		if r := recover(); r != nil {
			tel = nil
			err = gxoerrors.NewProviderLoadError(provider.Name(), "init", gxoerrors.NewPanicError(r))
		}
	}()
	tel, err = provider.Init(ctx, name, cfg)
	if err != nil {
		return nil, gxoerrors.NewProviderLoadError(provider.Name(), "init", err)
	}
	if tel == nil {
		return nil, gxoerrors.NewProviderLoadError(provider.Name(), "init", errors.New("provider returned nil telemetry"))
	}
	return tel, nil
}

// Instance returns the facade created by Init.
func (m *Manager) Instance() (*Facade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.facade == nil {
		return nil, gxoerrors.NewNotInitializedError("Instance")
	}
	return m.facade, nil
}

// WaitForInit blocks until the background load started by Init has
// settled, then returns the facade. ctx only bounds the wait.
func (m *Manager) WaitForInit(ctx context.Context) (*Facade, error) {
	m.mu.Lock()
	f, done := m.facade, m.initDone
	m.mu.Unlock()
	if f == nil {
		return nil, gxoerrors.NewNotInitializedError("WaitForInit")
	}
	select {
	case <-done:
		return f, nil
	case <-ctx.Done():
		return f, ctx.Err()
	}
}

// IsActive reports whether a real backend was ever installed. It does not
// reset after Shutdown.
func (m *Manager) IsActive() bool { return m.active.Load() }

// Shutdown waits (bounded by ctx) for a pending upgrade, then shuts the
// current backend down. An upgrade that completes after that point is shut
// down instead of installed. Only the first call does any work. Shutdown
// before Init is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	f, done := m.facade, m.initDone
	m.mu.Unlock()
	if f == nil {
		return nil
	}

	m.shutdownOnce.Do(func() {
		select {
		case <-done:
		case <-ctx.Done():
			m.log.Warnf("Telemetry initialization still pending at shutdown: %v", ctx.Err())
		}
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()
		m.shutdownErr = f.Shutdown(ctx)
		m.bus.Emit(events.Event{
			Type:      events.TelemetryShutdown,
			Timestamp: time.Now(),
			Name:      f.Name(),
		})
	})
	return m.shutdownErr
}

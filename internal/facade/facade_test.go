package facade

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gxo-labs/gxotel/internal/loader"
	"github.com/gxo-labs/gxotel/internal/logger"
	"github.com/gxo-labs/gxotel/internal/noop"
	"github.com/gxo-labs/gxotel/internal/registry"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"github.com/gxo-labs/gxotel/pkg/gxotel/v1/events"
	"github.com/gxo-labs/gxotel/providers/otelprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validSpanContext = gxotel.SpanContext{
	TraceID:    "4bf92f3577b34da6a3ce929d0e0e4736",
	SpanID:     "00f067aa0ba902b7",
	TraceFlags: gxotel.TraceFlagsSampled,
}

type validSpan struct{ noop.Span }

func (validSpan) SpanContext() gxotel.SpanContext { return validSpanContext }

// countingTracer counts started spans by name.
type countingTracer struct {
	mu    sync.Mutex
	names []string
}

func (t *countingTracer) StartSpan(ctx context.Context, name string, _ ...gxotel.SpanOption) (context.Context, gxotel.Span) {
	t.mu.Lock()
	t.names = append(t.names, name)
	t.mu.Unlock()
	return ctx, noop.DefaultSpan
}

func (t *countingTracer) StartActiveSpan(ctx context.Context, name string, fn func(context.Context, gxotel.Span) error, opts ...gxotel.SpanOption) error {
	ctx, span := t.StartSpan(ctx, name, opts...)
	return fn(ctx, span)
}

func (t *countingTracer) started() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.names...)
}

type fakeTelemetry struct {
	name      string
	tracer    *countingTracer
	shutdowns atomic.Int32
}

func (t *fakeTelemetry) Name() string          { return t.name }
func (t *fakeTelemetry) Tracer() gxotel.Tracer { return t.tracer }
func (t *fakeTelemetry) IsActive() bool        { return true }
func (t *fakeTelemetry) TraceMethod(fn gxotel.Operation, opts ...gxotel.TraceOption) gxotel.Operation {
	return gxotel.Trace(t, fn, opts...)
}
func (t *fakeTelemetry) TraceClass(_ context.Context, target gxotel.Traceable, opts ...gxotel.TraceOption) gxotel.Traceable {
	return target.WithTracing(gxotel.NewDecorator(t, target, opts...))
}
func (t *fakeTelemetry) Shutdown(context.Context) error {
	t.shutdowns.Add(1)
	return nil
}

type fakeProvider struct {
	*noop.Provider
	tel     *fakeTelemetry
	gate    chan struct{}
	initErr error
	panics  bool
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Init(_ context.Context, name string, _ gxotel.Config) (gxotel.Telemetry, error) {
	if p.gate != nil {
		<-p.gate
	}
	if p.panics {
		panic("init exploded")
	}
	if p.initErr != nil {
		return nil, p.initErr
	}
	p.tel.name = name
	return p.tel, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Emit(e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) count(typ events.EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// worker is a Traceable used to check class decoration.
type worker struct {
	Do func(ctx context.Context) (int, error)
}

func newWorker() *worker {
	return &worker{Do: func(context.Context) (int, error) { return 42, nil }}
}

func (w *worker) WithTracing(d *gxotel.Decorator) gxotel.Traceable {
	return &worker{Do: gxotel.Method(d, "Do", w.Do)}
}

var enabled = gxotel.Config{Enabled: true, Provider: "fake"}

func newTestManager(t *testing.T, p *fakeProvider, bus events.Bus) *Manager {
	t.Helper()
	reg := registry.NewStaticRegistry()
	require.NoError(t, reg.Register("fake", func() (gxotel.Provider, error) { return p, nil }))
	discard := logger.NewDiscardLogger()
	l := loader.New(loader.WithRegistry(reg), loader.WithLogger(discard))
	return NewManager(l, WithLogger(discard), WithEventBus(bus))
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{Provider: noop.DefaultProvider, tel: &fakeTelemetry{tracer: &countingTracer{}}}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewFacade_StartsInert(t *testing.T) {
	f := New("svc")
	assert.Equal(t, "svc", f.Name())
	assert.False(t, f.IsActive())
	assert.IsType(t, &noop.Telemetry{}, f.Backend())
	assert.False(t, f.ActiveSpan(context.Background()).SpanContext().IsValid())

	w := newWorker()
	assert.Same(t, w, f.TraceClass(context.Background(), w))
	assert.NoError(t, f.Shutdown(context.Background()))
}

func TestManager_InstanceBeforeInit(t *testing.T) {
	m := newTestManager(t, newFakeProvider(), &recordingBus{})

	_, err := m.Instance()
	var nie *gxoerrors.NotInitializedError
	assert.ErrorAs(t, err, &nie)

	_, err = m.WaitForInit(context.Background())
	assert.ErrorAs(t, err, &nie)

	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_InitReturnsImmediatelyThenUpgrades(t *testing.T) {
	p := newFakeProvider()
	p.gate = make(chan struct{})
	bus := &recordingBus{}
	m := newTestManager(t, p, bus)

	f := m.Init(context.Background(), "svc", enabled)
	require.NotNil(t, f)
	assert.False(t, f.IsActive())
	assert.False(t, m.IsActive())

	// Wrappers made before the upgrade must pick up the real backend.
	op := f.TraceMethod(func(context.Context) (any, error) { return "ok", nil }, gxotel.WithSpanName("early"))

	again := m.Init(context.Background(), "ignored", gxotel.Config{})
	assert.Same(t, f, again)

	close(p.gate)
	got, err := m.WaitForInit(waitCtx(t))
	require.NoError(t, err)
	assert.Same(t, f, got)
	assert.True(t, f.IsActive())
	assert.True(t, m.IsActive())
	assert.Same(t, p.tel, f.Backend())
	assert.Equal(t, "svc", p.tel.Name())
	assert.Equal(t, 1, bus.count(events.TracingActivated))

	res, err := op(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, []string{"early"}, p.tel.tracer.started())
}

func TestManager_InitSurvivesCancelledContext(t *testing.T) {
	p := newFakeProvider()
	m := newTestManager(t, p, &recordingBus{})

	ctx, cancel := context.WithCancel(context.Background())
	f := m.Init(ctx, "svc", enabled)
	cancel()

	_, err := m.WaitForInit(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, f.IsActive())
}

func TestManager_InitFailureStaysNoop(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *fakeProvider)
	}{
		{name: "error", mutate: func(p *fakeProvider) { p.initErr = errors.New("no exporter") }},
		{name: "panic", mutate: func(p *fakeProvider) { p.panics = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			tt.mutate(p)
			bus := &recordingBus{}
			m := newTestManager(t, p, bus)

			f := m.Init(context.Background(), "svc", enabled)
			_, err := m.WaitForInit(waitCtx(t))
			require.NoError(t, err)
			assert.False(t, f.IsActive())
			assert.False(t, m.IsActive())
			assert.Equal(t, 0, bus.count(events.TracingActivated))
		})
	}
}

func TestManager_DisabledConfigStaysNoop(t *testing.T) {
	p := newFakeProvider()
	m := newTestManager(t, p, &recordingBus{})

	f := m.Init(context.Background(), "svc", gxotel.Config{Enabled: false, Provider: "fake"})
	_, err := m.WaitForInit(waitCtx(t))
	require.NoError(t, err)
	assert.False(t, f.IsActive())
	assert.Empty(t, p.tel.name)
}

func TestManager_ShutdownOnce(t *testing.T) {
	p := newFakeProvider()
	bus := &recordingBus{}
	m := newTestManager(t, p, bus)

	m.Init(context.Background(), "svc", enabled)
	require.NoError(t, m.Shutdown(waitCtx(t)))
	require.NoError(t, m.Shutdown(waitCtx(t)))

	assert.Equal(t, int32(1), p.tel.shutdowns.Load())
	assert.Equal(t, 1, bus.count(events.TelemetryShutdown))
	assert.True(t, m.IsActive())
}

func TestManager_UpgradeAfterShutdownIsDiscarded(t *testing.T) {
	p := newFakeProvider()
	p.gate = make(chan struct{})
	bus := &recordingBus{}
	m := newTestManager(t, p, bus)

	f := m.Init(context.Background(), "svc", enabled)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	close(p.gate)
	_, err := m.WaitForInit(waitCtx(t))
	require.NoError(t, err)

	assert.False(t, f.IsActive())
	assert.False(t, m.IsActive())
	assert.Equal(t, int32(1), p.tel.shutdowns.Load())
	assert.Zero(t, bus.count(events.TracingActivated))
	assert.Equal(t, 1, bus.count(events.TelemetryShutdown))
}

func TestFacade_ContextBuiltBeforeUpgradeSurvivesIt(t *testing.T) {
	gate := make(chan struct{})
	otel := otelprovider.NewProvider(
		otelprovider.WithLogger(logger.NewDiscardLogger()),
		otelprovider.WithoutResourceDetection(),
		otelprovider.WithConsoleWriter(io.Discard),
	)
	reg := registry.NewStaticRegistry()
	require.NoError(t, reg.Register(otelprovider.Name, func() (gxotel.Provider, error) {
		<-gate
		return otel, nil
	}))
	discard := logger.NewDiscardLogger()
	m := NewManager(loader.New(loader.WithRegistry(reg), loader.WithLogger(discard)), WithLogger(discard))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	f := m.Init(context.Background(), "svc", gxotel.Config{Enabled: true, Provider: otelprovider.Name})
	require.False(t, f.IsActive())

	key := gxotel.NewContextKey("tenant")
	bag := f.EmptyBaggage().SetEntry("plan", gxotel.BaggageEntry{Value: "gold"})
	c := f.ContextWithBaggage(f.RootContext().SetValue(key, "acme"), bag)
	c = f.ContextWithSpan(c, validSpan{})
	_, built := c.(*noop.Context)
	require.True(t, built)

	close(gate)
	_, err := m.WaitForInit(waitCtx(t))
	require.NoError(t, err)
	require.True(t, f.IsActive())

	var (
		value any
		entry gxotel.BaggageEntry
		found bool
		sc    gxotel.SpanContext
	)
	err = f.With(context.Background(), c, func(ctx context.Context) error {
		active := f.ActiveContext(ctx)
		value = active.GetValue(key)
		entry, found = f.BaggageFromContext(active).Entry("plan")
		sc = f.ActiveSpan(ctx).SpanContext()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "acme", value)
	require.True(t, found)
	assert.Equal(t, "gold", entry.Value)
	assert.Equal(t, validSpanContext.TraceID, sc.TraceID)
	assert.Equal(t, validSpanContext.SpanID, sc.SpanID)

	entry, found = f.BaggageFromContext(c).Entry("plan")
	require.True(t, found)
	assert.Equal(t, "gold", entry.Value)
}

func TestFacade_TraceClass(t *testing.T) {
	p := newFakeProvider()
	m := newTestManager(t, p, &recordingBus{})
	f := m.Init(context.Background(), "svc", enabled)
	_, err := m.WaitForInit(waitCtx(t))
	require.NoError(t, err)

	w := newWorker()

	// No active span: skipped by default.
	assert.Same(t, w, f.TraceClass(context.Background(), w))

	// Explicitly not skipping.
	traced := gxotel.TraceObject(context.Background(), f, w, gxotel.WithSkipIfNoActiveSpan(false))
	assert.NotSame(t, w, traced)
	n, err := traced.Do(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, []string{"worker.Do"}, p.tel.tracer.started())

	// With an active span the default options wrap.
	c := f.ContextWithSpan(f.RootContext(), validSpan{})
	ctx := f.SetActiveContext(context.Background(), c)
	assert.True(t, f.ActiveSpan(ctx).SpanContext().IsValid())
	traced = gxotel.TraceObject(ctx, f, w, gxotel.WithSpanName("Worker"))
	_, err = traced.Do(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"worker.Do", "Worker.Do"}, p.tel.tracer.started())
}

func TestFacade_ContextForwarding(t *testing.T) {
	f := New("svc")
	key := gxotel.NewContextKey("k")

	c := f.RootContext().SetValue(key, "v")
	var seen any
	err := f.With(context.Background(), c, func(ctx context.Context) error {
		seen = f.ActiveContext(ctx).GetValue(key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", seen)

	b := f.EmptyBaggage()
	c = f.ContextWithBaggage(c, b)
	assert.Equal(t, b, f.BaggageFromContext(c))

	fut := f.WithAsync(context.Background(), c, func(ctx context.Context) error {
		if f.ActiveContext(ctx).GetValue(key) != "v" {
			return errors.New("context not active")
		}
		return nil
	})
	_, err = fut.Await(waitCtx(t))
	assert.NoError(t, err)
}

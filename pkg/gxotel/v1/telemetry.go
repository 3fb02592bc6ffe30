package v1

import "context"

// Operation is the untyped shape of a traceable call.
type Operation func(ctx context.Context) (any, error)

// TracerSource is anything that can hand out the tracer to use for the next
// call. Telemetry implementations satisfy it.
type TracerSource interface {
	Tracer() Tracer
}

// Telemetry is the facade host code holds on to.
type Telemetry interface {
	// Name is the name the telemetry was initialized with.
	Name() string
	// Tracer returns the tracer backing this telemetry.
	Tracer() Tracer
	// TraceMethod wraps fn so every call runs inside a span. See Trace.
	TraceMethod(fn Operation, opts ...TraceOption) Operation
	// TraceClass returns a traced variant of target, or target itself when
	// wrapping is skipped. See Traceable.
	TraceClass(ctx context.Context, target Traceable, opts ...TraceOption) Traceable
	// Shutdown flushes and releases backend resources.
	Shutdown(ctx context.Context) error
	// IsActive reports whether a real tracing backend is in use.
	IsActive() bool
}

// Provider supplies a concrete telemetry backend.
type Provider interface {
	ContextAPI
	// Name is the registry name of the provider, e.g. "otel".
	Name() string
	// Init builds a Telemetry for name using cfg.
	Init(ctx context.Context, name string, cfg Config) (Telemetry, error)
}

// ProviderFactory creates a Provider. Factories are registered by name and
// invoked at most once per distinct load.
type ProviderFactory func() (Provider, error)

// Registry maps provider names to factories.
type Registry interface {
	// Get returns the factory registered under name or a
	// *errors.ProviderNotFoundError.
	Get(name string) (ProviderFactory, error)
	// Register associates name with factory. It fails on an empty name, a nil
	// factory or a duplicate name.
	Register(name string, factory ProviderFactory) error
	// List returns every registered name in no particular order.
	List() []string
}

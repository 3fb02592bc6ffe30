package v1

import "context"

// ContextKey is an opaque key for values stored in a Context. Keys are
// compared by identity: two keys created with the same description are
// distinct.
type ContextKey struct {
	desc *string
}

// NewContextKey returns a new unique key. The description is only used for
// debugging output.
func NewContextKey(description string) ContextKey {
	return ContextKey{desc: &description}
}

// String returns the key description.
func (k ContextKey) String() string {
	if k.desc == nil {
		return "<invalid key>"
	}
	return *k.desc
}

// Context is an immutable key/value carrier for ambient telemetry values such
// as the current span or baggage. SetValue and DeleteValue never modify the
// receiver; they return a derived Context.
type Context interface {
	// GetValue returns the value stored under key, or nil.
	GetValue(key ContextKey) any
	// SetValue returns a new Context with key set to value.
	SetValue(key ContextKey, value any) Context
	// DeleteValue returns a new Context without key.
	DeleteValue(key ContextKey) Context
}

// ContextAPI groups the cross-cutting context, span and baggage operations
// exposed by a provider. The "active" context travels inside a standard
// context.Context; ActiveContext and SetActiveContext move between the two.
type ContextAPI interface {
	// ActiveSpan returns the span active in ctx. It never returns nil; when
	// nothing is active the returned span has an invalid SpanContext.
	ActiveSpan(ctx context.Context) Span
	// ContextWithSpan returns c with span stored as its current span.
	ContextWithSpan(c Context, span Span) Context
	// SpanFromContext returns the span stored in c, or a non-recording span.
	SpanFromContext(c Context) Span
	// ContextWithBaggage returns c with b stored as its baggage.
	ContextWithBaggage(c Context, b Baggage) Context
	// BaggageFromContext returns the baggage stored in c, or empty baggage.
	BaggageFromContext(c Context) Baggage
	// ActiveContext returns the telemetry Context carried by ctx, or the root context.
	ActiveContext(ctx context.Context) Context
	// SetActiveContext returns a child of ctx in which c is the active Context.
	SetActiveContext(ctx context.Context, c Context) context.Context
	// With runs fn synchronously with c active and returns its error.
	With(ctx context.Context, c Context, fn func(ctx context.Context) error) error
	// WithAsync runs fn on a new goroutine with c active.
	WithAsync(ctx context.Context, c Context, fn func(ctx context.Context) error) *Future[struct{}]
	// RootContext returns the empty Context.
	RootContext() Context
	// EmptyBaggage returns baggage with no entries.
	EmptyBaggage() Baggage
}

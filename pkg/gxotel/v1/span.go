// Package v1 defines the backend-independent telemetry surface used by host
// code: spans, tracers, contexts, baggage, the Telemetry facade and the
// Provider contract. Nothing in this package depends on a concrete tracing
// library; implementations live in internal/noop and providers/.
package v1

import (
	"strings"
	"time"
)

// StatusCode is the completion status of a span.
type StatusCode int

const (
	// StatusUnset is the default status of every span.
	StatusUnset StatusCode = iota
	// StatusOK marks a span as explicitly successful.
	StatusOK
	// StatusError marks a span as failed.
	StatusError
)

// String returns the lowercase name of the status code.
func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// SpanStatus pairs a status code with an optional description. The
// description is only meaningful for StatusError.
type SpanStatus struct {
	Code    StatusCode
	Message string
}

// SpanKind describes the relationship between a span, its parent and its children.
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

// String returns the lowercase name of the span kind.
func (k SpanKind) String() string {
	switch k {
	case SpanKindServer:
		return "server"
	case SpanKindClient:
		return "client"
	case SpanKindProducer:
		return "producer"
	case SpanKindConsumer:
		return "consumer"
	default:
		return "internal"
	}
}

// Attributes maps attribute keys to values. Supported values are string,
// bool, the integer kinds, float32/float64 and slices of those. Backends
// stringify anything else.
type Attributes map[string]any

// Clone returns a shallow copy of the attributes. A nil receiver yields nil.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a new Attributes holding a overlaid with other.
func (a Attributes) Merge(other Attributes) Attributes {
	if len(other) == 0 {
		return a.Clone()
	}
	out := make(Attributes, len(a)+len(other))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

const (
	// InvalidTraceID is the all-zero trace id carried by non-recording spans.
	InvalidTraceID = "00000000000000000000000000000000"
	// InvalidSpanID is the all-zero span id carried by non-recording spans.
	InvalidSpanID = "0000000000000000"
)

// TraceFlagsSampled is the W3C sampled bit.
const TraceFlagsSampled byte = 0x01

// SpanContext is the immutable identity of a span. IDs are lowercase hex.
type SpanContext struct {
	TraceID    string
	SpanID     string
	TraceFlags byte
	TraceState string
	Remote     bool
}

// InvalidSpanContext is the identity reported by no-op spans.
var InvalidSpanContext = SpanContext{TraceID: InvalidTraceID, SpanID: InvalidSpanID}

// IsValid reports whether both IDs are well formed and non-zero.
func (sc SpanContext) IsValid() bool {
	return isHexID(sc.TraceID, 32) && sc.TraceID != InvalidTraceID &&
		isHexID(sc.SpanID, 16) && sc.SpanID != InvalidSpanID
}

// IsSampled reports whether the sampled flag is set.
func (sc SpanContext) IsSampled() bool {
	return sc.TraceFlags&TraceFlagsSampled != 0
}

func isHexID(id string, size int) bool {
	if len(id) != size {
		return false
	}
	return strings.Trim(id, "0123456789abcdef") == ""
}

// Span is one unit of traced work. Mutators return the span itself so calls
// can be chained. Calls made after End are accepted; whether they have any
// effect is up to the backend.
type Span interface {
	// End terminates the span.
	End(opts ...EndOption)
	// SetAttribute sets a single attribute.
	SetAttribute(key string, value any) Span
	// SetAttributes sets every attribute in attrs.
	SetAttributes(attrs Attributes) Span
	// AddEvent records a named, timestamped event.
	AddEvent(name string, attrs Attributes) Span
	// SetStatus sets the completion status.
	SetStatus(status SpanStatus) Span
	// RecordException records err as an exception event. It does not change the status.
	RecordException(err error)
	// UpdateName replaces the span name.
	UpdateName(name string) Span
	// IsRecording reports whether the span records data.
	IsRecording() bool
	// SpanContext returns the span identity.
	SpanContext() SpanContext
}

// SpanConfig collects the options applied when a span is started.
type SpanConfig struct {
	Kind       SpanKind
	Attributes Attributes
	StartTime  time.Time
	NewRoot    bool
}

// SpanOption configures span creation.
type SpanOption func(*SpanConfig)

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return func(c *SpanConfig) { c.Kind = kind }
}

// WithAttributes adds attributes set at span start.
func WithAttributes(attrs Attributes) SpanOption {
	return func(c *SpanConfig) { c.Attributes = c.Attributes.Merge(attrs) }
}

// WithStartTime overrides the span start timestamp.
func WithStartTime(t time.Time) SpanOption {
	return func(c *SpanConfig) { c.StartTime = t }
}

// WithNewRoot ignores any parent span found in the context.
func WithNewRoot() SpanOption {
	return func(c *SpanConfig) { c.NewRoot = true }
}

// NewSpanConfig applies opts to a zero SpanConfig.
func NewSpanConfig(opts ...SpanOption) SpanConfig {
	var cfg SpanConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// EndConfig collects the options applied when a span ends.
type EndConfig struct {
	EndTime time.Time
}

// EndOption configures span termination.
type EndOption func(*EndConfig)

// WithEndTime overrides the span end timestamp.
func WithEndTime(t time.Time) EndOption {
	return func(c *EndConfig) { c.EndTime = t }
}

// NewEndConfig applies opts to a zero EndConfig.
func NewEndConfig(opts ...EndOption) EndConfig {
	var cfg EndConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

package otelprovider

import (
	"errors"
	"fmt"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const exceptionEventName = "exception"

// Span forwards to an OpenTelemetry span, scrubbing attributes and messages
// on the way through.
type Span struct {
	span     trace.Span
	redactor *redactor
}

func wrapSpan(s trace.Span, r *redactor) *Span {
	return &Span{span: s, redactor: r}
}

// Unwrap returns the underlying OpenTelemetry span.
func (s *Span) Unwrap() trace.Span { return s.span }

// End ends the span, at cfg.EndTime when one is given.
func (s *Span) End(opts ...gxotel.EndOption) {
	cfg := gxotel.NewEndConfig(opts...)
	if cfg.EndTime.IsZero() {
		s.span.End()
		return
	}
	s.span.End(trace.WithTimestamp(cfg.EndTime))
}

// SetAttribute sets one redacted attribute.
func (s *Span) SetAttribute(key string, value any) gxotel.Span {
	s.span.SetAttributes(s.redactor.attribute(toKeyValue(key, value)))
	return s
}

// SetAttributes sets redacted attributes.
func (s *Span) SetAttributes(attrs gxotel.Attributes) gxotel.Span {
	if len(attrs) > 0 {
		s.span.SetAttributes(s.redactor.attributes(toKeyValues(attrs))...)
	}
	return s
}

// AddEvent records a named event with redacted attributes.
func (s *Span) AddEvent(name string, attrs gxotel.Attributes) gxotel.Span {
	if len(attrs) == 0 {
		s.span.AddEvent(name)
		return s
	}
	s.span.AddEvent(name, trace.WithAttributes(s.redactor.attributes(toKeyValues(attrs))...))
	return s
}

// SetStatus sets the status; the message is redacted.
func (s *Span) SetStatus(status gxotel.SpanStatus) gxotel.Span {
	s.span.SetStatus(toOtelCode(status.Code), s.redactor.message(status.Message))
	return s
}

// RecordException adds an "exception" event. The message is scrubbed before
// recording; recovered panics also carry their stack trace.
func (s *Span) RecordException(err error) {
	if err == nil || !s.span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{
		semconv.ExceptionTypeKey.String(fmt.Sprintf("%T", err)),
		semconv.ExceptionMessageKey.String(s.redactor.message(err.Error())),
	}
	var pe *gxoerrors.PanicError
	if errors.As(err, &pe) && len(pe.Stack) > 0 {
		attrs = append(attrs, semconv.ExceptionStacktraceKey.String(string(pe.Stack)))
	}
	s.span.AddEvent(exceptionEventName, trace.WithAttributes(attrs...))
}

// UpdateName renames the span.
func (s *Span) UpdateName(name string) gxotel.Span {
	s.span.SetName(name)
	return s
}

// IsRecording reports whether the span records data.
func (s *Span) IsRecording() bool { return s.span.IsRecording() }

// SpanContext returns the span identity.
func (s *Span) SpanContext() gxotel.SpanContext {
	return fromOtelSpanContext(s.span.SpanContext())
}

var _ gxotel.Span = (*Span)(nil)

// Package noop provides inert implementations of every gxotel capability
// interface. They never record anything, but Context and Baggage still behave
// as real copy-on-write maps because callers read back what they just set.
package noop

import (
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
)

// Span is a span that records nothing.
type Span struct{}

// DefaultSpan is the shared no-op span.
var DefaultSpan gxotel.Span = Span{}

// End does nothing.
func (Span) End(...gxotel.EndOption) {}

// SetAttribute returns s.
func (s Span) SetAttribute(string, any) gxotel.Span { return s }

// SetAttributes returns s.
func (s Span) SetAttributes(gxotel.Attributes) gxotel.Span { return s }

// AddEvent returns s.
func (s Span) AddEvent(string, gxotel.Attributes) gxotel.Span { return s }

// SetStatus returns s.
func (s Span) SetStatus(gxotel.SpanStatus) gxotel.Span { return s }

// RecordException does nothing.
func (Span) RecordException(error) {}

// UpdateName returns s.
func (s Span) UpdateName(string) gxotel.Span { return s }

// IsRecording is always false.
func (Span) IsRecording() bool { return false }

// SpanContext returns the invalid span context.
func (Span) SpanContext() gxotel.SpanContext { return gxotel.InvalidSpanContext }

var _ gxotel.Span = Span{}

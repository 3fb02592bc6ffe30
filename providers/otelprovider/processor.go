package otelprovider

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// staticAttributesProcessor stamps configured attributes on every span at
// start. Attributes already set by the caller win.
type staticAttributesProcessor struct {
	attrs []attribute.KeyValue
}

func newStaticAttributesProcessor(attrs []attribute.KeyValue) *staticAttributesProcessor {
	return &staticAttributesProcessor{attrs: attrs}
}

func (p *staticAttributesProcessor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	existing := make(map[attribute.Key]struct{}, len(s.Attributes()))
	for _, kv := range s.Attributes() {
		existing[kv.Key] = struct{}{}
	}
	missing := make([]attribute.KeyValue, 0, len(p.attrs))
	for _, kv := range p.attrs {
		if _, set := existing[kv.Key]; !set {
			missing = append(missing, kv)
		}
	}
	if len(missing) > 0 {
		s.SetAttributes(missing...)
	}
}

func (p *staticAttributesProcessor) OnEnd(sdktrace.ReadOnlySpan) {}

func (p *staticAttributesProcessor) Shutdown(context.Context) error { return nil }

func (p *staticAttributesProcessor) ForceFlush(context.Context) error { return nil }

var _ sdktrace.SpanProcessor = (*staticAttributesProcessor)(nil)

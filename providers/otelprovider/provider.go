// Package otelprovider is the OpenTelemetry backend for gxotel. Importing it
// registers the provider under the name "otel":
//
//	import _ "github.com/gxo-labs/gxotel/providers/otelprovider"
package otelprovider

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/gxo-labs/gxotel/internal/logger"
	"github.com/gxo-labs/gxotel/internal/registry"
	"github.com/gxo-labs/gxotel/internal/secrets"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Name is the registry name of this provider.
const Name = "otel"

// instrumentationName identifies spans produced through gxotel.
const instrumentationName = "github.com/gxo-labs/gxotel"

func init() {
	registry.Register(Name, func() (gxotel.Provider, error) { return NewProvider(), nil })
}

// Option customizes a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for setup and shutdown messages.
func WithLogger(log gxolog.Logger) Option {
	return func(p *Provider) {
		if log != nil {
			p.log = log
		}
	}
}

// WithSecretTracker shares tracker with the provider. Header values are
// added to it during Init and masked in recorded data.
func WithSecretTracker(tracker *secrets.SecretTracker) Option {
	return func(p *Provider) {
		if tracker != nil {
			p.tracker = tracker
		}
	}
}

// WithSpanProcessor registers an additional span processor on every
// telemetry built by the provider.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(p *Provider) { p.extraProcessors = append(p.extraProcessors, sp) }
}

// WithConsoleWriter redirects the console exporter (default os.Stdout).
func WithConsoleWriter(w io.Writer) Option {
	return func(p *Provider) {
		if w != nil {
			p.console = w
		}
	}
}

// WithoutResourceDetection skips host, process and OS detection. The
// resource then only carries service and deployment attributes.
func WithoutResourceDetection() Option {
	return func(p *Provider) { p.detectResource = false }
}

// Provider is the OpenTelemetry gxotel.Provider.
type Provider struct {
	log             gxolog.Logger
	tracker         *secrets.SecretTracker
	extraProcessors []sdktrace.SpanProcessor
	console         io.Writer
	detectResource  bool

	// redactor of the most recent Init, used by spans reached through the
	// context operations.
	redactor atomic.Pointer[redactor]
}

// NewProvider creates a provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		log:            logger.NewDefaultLogger("warn"),
		tracker:        secrets.NewSecretTracker(),
		console:        os.Stdout,
		detectResource: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "otel".
func (p *Provider) Name() string { return Name }

// Init builds an SDK tracer provider from cfg. The OTLP exporter is only
// created when cfg.Endpoint is set; a failure to create it is returned.
func (p *Provider) Init(ctx context.Context, name string, cfg gxotel.Config) (gxotel.Telemetry, error) {
	log := p.log.With("telemetry", name, "provider", Name)
	p.tracker.AddAll(cfg.Headers)
	red := newRedactor(cfg.RedactedKeywords, p.tracker)

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(p.buildResource(ctx, name, cfg, log)),
		sdktrace.WithSampler(buildSampler(cfg)),
	}
	if len(cfg.Attributes) > 0 {
		static := red.attributes(toKeyValues(cfg.Attributes))
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(newStaticAttributesProcessor(static)))
	}

	exporter, err := newOTLPExporter(ctx, cfg, log)
	if err != nil {
		return nil, gxoerrors.NewProviderLoadError(Name, "exporter", err)
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	if cfg.ConsoleExporter {
		console, err := newConsoleExporter(p.console)
		if err != nil {
			return nil, gxoerrors.NewProviderLoadError(Name, "exporter", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(console))
	}

	var storage *tracetest.InMemoryExporter
	if cfg.StorageExporter {
		storage = tracetest.NewInMemoryExporter()
		tpOpts = append(tpOpts, sdktrace.WithSyncer(storage))
	}

	for _, sp := range p.extraProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	sdk := sdktrace.NewTracerProvider(tpOpts...)
	p.redactor.Store(red)

	log.Infof("OpenTelemetry tracing configured (otlp: %t, console: %t, storage: %t)", exporter != nil, cfg.ConsoleExporter, cfg.StorageExporter)
	return &Telemetry{
		name:     name,
		sdk:      sdk,
		tracer:   &Tracer{name: name, tracer: sdk.Tracer(instrumentationName), redactor: red},
		storage:  storage,
		redactor: red,
		log:      log,
	}, nil
}

func (p *Provider) buildResource(ctx context.Context, name string, cfg gxotel.Config, log gxolog.Logger) *resource.Resource {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.EffectiveServiceName(name))}
	if env := cfg.EffectiveEnvironment(); env != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(env))
	}
	if !p.detectResource {
		return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attrs...),
		resource.WithProcess(), resource.WithOS(), resource.WithContainer(), resource.WithHost(),
	)
	if err != nil {
		log.Warnf("Failed to detect full OpenTelemetry resource: %v", err)
		if res == nil {
			res = resource.NewWithAttributes(semconv.SchemaURL, attrs...)
		}
	}
	return res
}

func buildSampler(cfg gxotel.Config) sdktrace.Sampler {
	if cfg.SamplingRatio == nil {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(*cfg.SamplingRatio))
}

func (p *Provider) currentRedactor() *redactor { return p.redactor.Load() }

// ActiveSpan returns the OpenTelemetry span in ctx.
func (p *Provider) ActiveSpan(ctx context.Context) gxotel.Span {
	if ctx == nil {
		ctx = context.Background()
	}
	return wrapSpan(trace.SpanFromContext(ctx), p.currentRedactor())
}

// ContextWithSpan stores span in c. Spans from other backends are stored by
// identity only, as a non-recording span.
func (p *Provider) ContextWithSpan(c gxotel.Context, span gxotel.Span) gxotel.Context {
	oc := asContext(c)
	if s, ok := span.(*Span); ok && s != nil {
		return &Context{ctx: trace.ContextWithSpan(oc.ctx, s.span)}
	}
	if span == nil {
		return &Context{ctx: trace.ContextWithSpan(oc.ctx, trace.SpanFromContext(context.Background()))}
	}
	return &Context{ctx: trace.ContextWithSpanContext(oc.ctx, toOtelSpanContext(span.SpanContext()))}
}

// SpanFromContext returns the span stored in c.
func (p *Provider) SpanFromContext(c gxotel.Context) gxotel.Span {
	return wrapSpan(trace.SpanFromContext(asContext(c).ctx), p.currentRedactor())
}

// ContextWithBaggage returns c carrying b converted to OpenTelemetry baggage.
func (p *Provider) ContextWithBaggage(c gxotel.Context, b gxotel.Baggage) gxotel.Context {
	return &Context{ctx: baggage.ContextWithBaggage(asContext(c).ctx, toOtelBaggage(b))}
}

// BaggageFromContext returns the baggage stored in c.
func (p *Provider) BaggageFromContext(c gxotel.Context) gxotel.Baggage {
	return &Baggage{bag: baggage.FromContext(asContext(c).ctx)}
}

// ActiveContext wraps ctx itself.
func (p *Provider) ActiveContext(ctx context.Context) gxotel.Context {
	if ctx == nil {
		return rootContext
	}
	return &Context{ctx: ctx}
}

// SetActiveContext returns a child of ctx in which c is active.
func (p *Provider) SetActiveContext(ctx context.Context, c gxotel.Context) context.Context {
	return activate(ctx, c)
}

// With runs fn with c active.
func (p *Provider) With(ctx context.Context, c gxotel.Context, fn func(ctx context.Context) error) error {
	return fn(activate(ctx, c))
}

// WithAsync runs fn on a new goroutine with c active.
func (p *Provider) WithAsync(ctx context.Context, c gxotel.Context, fn func(ctx context.Context) error) *gxotel.Future[struct{}] {
	return gxotel.Go(activate(ctx, c), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// RootContext returns a Context over context.Background.
func (p *Provider) RootContext() gxotel.Context { return rootContext }

// EmptyBaggage returns baggage with no members.
func (p *Provider) EmptyBaggage() gxotel.Baggage { return emptyBaggage }

var _ gxotel.Provider = (*Provider)(nil)

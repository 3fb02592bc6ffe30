package v1

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
)

// FallbackSpanName is used when neither an explicit name nor the function's
// own name is available.
const FallbackSpanName = "anonymous_function"

// TraceConfig holds the options shared by Trace, TraceMethod and TraceClass.
type TraceConfig struct {
	SpanName           string
	Attributes         Attributes
	Kind               SpanKind
	SkipIfNoActiveSpan bool
	ExcludedMethods    []string
}

// TraceOption configures tracing decoration.
type TraceOption func(*TraceConfig)

// WithSpanName sets an explicit span name (for TraceClass, the class prefix).
func WithSpanName(name string) TraceOption {
	return func(c *TraceConfig) { c.SpanName = name }
}

// WithTraceAttributes adds attributes applied to every span produced.
func WithTraceAttributes(attrs Attributes) TraceOption {
	return func(c *TraceConfig) { c.Attributes = c.Attributes.Merge(attrs) }
}

// WithTraceKind sets the kind of every span produced.
func WithTraceKind(kind SpanKind) TraceOption {
	return func(c *TraceConfig) { c.Kind = kind }
}

// WithSkipIfNoActiveSpan controls whether TraceClass returns the instance
// untouched when no span is active. Defaults to true.
func WithSkipIfNoActiveSpan(skip bool) TraceOption {
	return func(c *TraceConfig) { c.SkipIfNoActiveSpan = skip }
}

// WithExcludedMethods lists methods a Decorator must leave untraced.
func WithExcludedMethods(methods ...string) TraceOption {
	return func(c *TraceConfig) { c.ExcludedMethods = append(c.ExcludedMethods, methods...) }
}

// NewTraceConfig applies opts on top of the defaults.
func NewTraceConfig(opts ...TraceOption) TraceConfig {
	cfg := TraceConfig{SkipIfNoActiveSpan: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (c TraceConfig) spanOptions() []SpanOption {
	opts := []SpanOption{WithSpanKind(c.Kind)}
	if len(c.Attributes) > 0 {
		opts = append(opts, WithAttributes(c.Attributes))
	}
	return opts
}

// Trace wraps fn so each call runs inside a span obtained from src.Tracer()
// at call time. The span is named after WithSpanName, else fn's own symbol
// name, else FallbackSpanName.
//
// A returned error or a panic marks the span as failed and ends it; the error
// is returned unchanged and the panic is re-raised with its original value.
// If the result implements Thenable, the span stays open until the result
// settles and is ended before any waiter observes the settlement.
func Trace[T any](src TracerSource, fn func(ctx context.Context) (T, error), opts ...TraceOption) func(ctx context.Context) (T, error) {
	if fn == nil {
		return nil
	}
	cfg := NewTraceConfig(opts...)
	name := cfg.SpanName
	if name == "" {
		name = FuncName(fn)
	}
	spanOpts := cfg.spanOptions()

	return func(ctx context.Context) (result T, err error) {
		spanCtx, span := src.Tracer().StartSpan(ctx, name, spanOpts...)

		settledSync := false
		defer func() {
			if settledSync {
				return
			}
			if r := recover(); r != nil {
				FailSpan(span, gxoerrors.NewPanicError(r))
				span.End()
				panic(r)
			}
		}()

		result, err = fn(spanCtx)
		settledSync = true

		if err != nil {
			FailSpan(span, err)
			span.End()
			return result, err
		}
		if pending, ok := any(result).(Thenable); ok && pending != nil {
			pending.Then(func(asyncErr error) {
				if asyncErr != nil {
					FailSpan(span, asyncErr)
				}
				span.End()
			})
			return result, nil
		}
		span.End()
		return result, nil
	}
}

// FailSpan records err on span and sets its status to StatusError.
func FailSpan(span Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordException(err)
	span.SetStatus(SpanStatus{Code: StatusError, Message: err.Error()})
}

// FuncName returns the short symbol name of fn (package.Func or
// package.Type.Method), or FallbackSpanName.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return FallbackSpanName
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil || f.Name() == "" {
		return FallbackSpanName
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	// Method values carry a "-fm" suffix.
	return strings.TrimSuffix(name, "-fm")
}

// Traceable is implemented by types that can build a traced variant of
// themselves. WithTracing wraps each method it wants traced through Method
// and returns the wrapper.
type Traceable interface {
	WithTracing(d *Decorator) Traceable
}

// Decorator is handed to Traceable.WithTracing. It knows the class name used
// as span prefix, the methods to leave untraced, and where to get tracers.
type Decorator struct {
	src      TracerSource
	class    string
	cfg      TraceConfig
	excluded map[string]struct{}
}

// NewDecorator returns a decorator for target. The class name is the
// WithSpanName option, else target's type name.
func NewDecorator(src TracerSource, target any, opts ...TraceOption) *Decorator {
	cfg := NewTraceConfig(opts...)
	class := cfg.SpanName
	if class == "" {
		class = TypeName(target)
	}
	excluded := make(map[string]struct{}, len(cfg.ExcludedMethods))
	for _, m := range cfg.ExcludedMethods {
		excluded[m] = struct{}{}
	}
	return &Decorator{src: src, class: class, cfg: cfg, excluded: excluded}
}

// Class returns the span name prefix.
func (d *Decorator) Class() string { return d.class }

// Excluded reports whether method must be left untraced.
func (d *Decorator) Excluded(method string) bool {
	_, ok := d.excluded[method]
	return ok
}

// Method wraps fn as method of the decorated class. Excluded methods and a
// nil decorator return fn unchanged.
func Method[T any](d *Decorator, method string, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	if d == nil || d.Excluded(method) {
		return fn
	}
	opts := []TraceOption{
		WithSpanName(d.class + "." + method),
		WithTraceKind(d.cfg.Kind),
	}
	if len(d.cfg.Attributes) > 0 {
		opts = append(opts, WithTraceAttributes(d.cfg.Attributes))
	}
	return Trace(d.src, fn, opts...)
}

// TraceObject is the typed form of Telemetry.TraceClass. If the traced
// variant is not a T, obj is returned.
func TraceObject[T Traceable](ctx context.Context, tel Telemetry, obj T, opts ...TraceOption) T {
	traced, ok := tel.TraceClass(ctx, obj, opts...).(T)
	if !ok {
		return obj
	}
	return traced
}

// TypeName returns the unqualified type name of v, without pointer markers.
func TypeName(v any) string {
	if v == nil {
		return FallbackSpanName
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}

// IsPanic reports whether err is a recovered panic recorded by Trace or Go.
func IsPanic(err error) bool {
	var pe *gxoerrors.PanicError
	return errors.As(err, &pe)
}

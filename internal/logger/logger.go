package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gxo-labs/gxotel/internal/secrets"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"
	"go.opentelemetry.io/otel/trace"
)

// Default log level if not specified or invalid.
const defaultLevel = slog.LevelInfo

// RedactedValue replaces tracked secrets found in log output.
const RedactedValue = "[REDACTED]"

// parseLogLevel converts common log level strings (case-insensitive) to slog.Level values.
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return defaultLevel
	}
}

// Option customizes a logger built by NewLogger.
type Option func(*options)

type options struct {
	tracker *secrets.SecretTracker
}

// WithSecretTracker scrubs every value tracked by tracker from messages and
// string attributes before they are written.
func WithSecretTracker(tracker *secrets.SecretTracker) Option {
	return func(o *options) { o.tracker = tracker }
}

// defaultLogger implements gxolog.Logger on top of log/slog.
type defaultLogger struct {
	*slog.Logger
}

var _ gxolog.Logger = (*defaultLogger)(nil)

// NewLogger creates a Logger with the given level, format ("text" or "json")
// and writer (os.Stderr when nil). Records pass through the redaction handler
// (when a tracker is configured) and the OtelHandler.
func NewLogger(levelStr string, formatStr string, writer io.Writer, opts ...Option) gxolog.Logger {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if writer == nil {
		writer = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       parseLogLevel(levelStr),
		ReplaceAttr: replaceLevelAttribute,
	}

	var handler slog.Handler
	switch strings.ToLower(formatStr) {
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		handler = slog.NewTextHandler(writer, handlerOpts)
	}
	if o.tracker != nil {
		handler = NewRedactingHandler(handler, o.tracker)
	}

	return &defaultLogger{Logger: slog.New(NewOtelHandler(handler))}
}

// NewDefaultLogger returns a text logger writing to os.Stderr.
func NewDefaultLogger(levelStr string) gxolog.Logger {
	return NewLogger(levelStr, "text", os.Stderr)
}

// NewDiscardLogger returns a logger that writes nothing. Useful in tests and
// for embedding hosts that supply no logger.
func NewDiscardLogger() gxolog.Logger {
	return NewLogger("error", "text", io.Discard)
}

var levelStringMap = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "ERROR",
}

// replaceLevelAttribute renders the level attribute as an uppercase string.
func replaceLevelAttribute(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	levelStr, exists := levelStringMap[level]
	if !exists {
		levelStr = level.String()
	}
	a.Value = slog.StringValue(levelStr)
	return a
}

// Debugf logs a formatted message at the DEBUG level.
func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	l.logf(slog.LevelDebug, format, args...)
}

// Infof logs a formatted message at the INFO level.
func (l *defaultLogger) Infof(format string, args ...interface{}) {
	l.logf(slog.LevelInfo, format, args...)
}

// Warnf logs a formatted message at the WARN level. Provider failures are
// reported at this level, so a trailing error is logged structurally.
func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	l.logf(slog.LevelWarn, format, args...)
}

// Errorf logs a formatted message at the ERROR level.
func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	l.logf(slog.LevelError, format, args...)
}

func (l *defaultLogger) logf(level slog.Level, format string, args ...interface{}) {
	ctx := context.Background()
	if !l.Logger.Enabled(ctx, level) {
		return
	}
	l.Logger.Log(ctx, level, fmt.Sprintf(format, args...), errorAttrs(args)...)
}

// errorAttrs returns structured attributes for a trailing error argument.
func errorAttrs(args []interface{}) []any {
	if len(args) == 0 {
		return nil
	}
	err, ok := args[len(args)-1].(error)
	if !ok || err == nil {
		return nil
	}

	var attrs []any
	var ple *gxoerrors.ProviderLoadError
	var nf *gxoerrors.ProviderNotFoundError
	switch {
	case errors.As(err, &ple):
		attrs = append(attrs,
			slog.String("error_type", "ProviderLoadError"),
			slog.String("provider", ple.ProviderName),
			slog.String("stage", ple.Stage),
		)
	case errors.As(err, &nf):
		attrs = append(attrs,
			slog.String("error_type", "ProviderNotFoundError"),
			slog.String("provider", nf.ProviderName),
		)
	}
	return append(attrs, slog.String("error", err.Error()))
}

// Log logs a message at level with explicit key-value pairs.
func (l *defaultLogger) Log(level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(context.Background(), level, msg, args...)
}

// LogCtx logs a message at level; trace and span IDs are taken from ctx.
func (l *defaultLogger) LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(ctx, level, msg, args...)
}

// With returns a Logger that adds args to every entry.
func (l *defaultLogger) With(args ...interface{}) gxolog.Logger {
	return &defaultLogger{Logger: l.Logger.With(args...)}
}

// IsEnabled checks if logging is enabled for level.
func (l *defaultLogger) IsEnabled(level slog.Level) bool {
	return l.Logger.Enabled(context.Background(), level)
}

// --- OtelHandler for Trace/Span ID Injection ---

// OtelHandler is a slog.Handler middleware that adds trace_id and span_id
// attributes when the logging context carries a valid span context.
type OtelHandler struct {
	next slog.Handler
}

// NewOtelHandler creates a new OtelHandler wrapping next.
func NewOtelHandler(next slog.Handler) *OtelHandler {
	return &OtelHandler{next: next}
}

func (h *OtelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *OtelHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, record)
}

func (h *OtelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewOtelHandler(h.next.WithAttrs(attrs))
}

func (h *OtelHandler) WithGroup(name string) slog.Handler {
	return NewOtelHandler(h.next.WithGroup(name))
}

// --- RedactingHandler ---

// RedactingHandler replaces tracked secret values in the message and in
// string attributes. Exporter headers are tracked so auth tokens never reach
// the log sink, even when an exporter error echoes them back.
type RedactingHandler struct {
	next    slog.Handler
	tracker *secrets.SecretTracker
}

// NewRedactingHandler wraps next.
func NewRedactingHandler(next slog.Handler, tracker *secrets.SecretTracker) *RedactingHandler {
	return &RedactingHandler{next: next, tracker: tracker}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	scrubbed := slog.NewRecord(record.Time, record.Level, h.tracker.Redact(record.Message, RedactedValue), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		scrubbed.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, scrubbed)
}

func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.tracker.Redact(a.Value.String(), RedactedValue))
	case slog.KindGroup:
		group := a.Value.Group()
		redacted := make([]any, 0, len(group))
		for _, ga := range group {
			redacted = append(redacted, h.redactAttr(ga))
		}
		return slog.Group(a.Key, redacted...)
	}
	return a
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return NewRedactingHandler(h.next.WithAttrs(redacted), h.tracker)
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return NewRedactingHandler(h.next.WithGroup(name), h.tracker)
}

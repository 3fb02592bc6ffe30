package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/gxo-labs/gxotel/internal/logger"
	"github.com/gxo-labs/gxotel/internal/secrets"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("warn", "json", &buf)

	log.Infof("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, log.IsEnabled(slog.LevelInfo))
	assert.True(t, log.IsEnabled(slog.LevelError))

	log.Warnf("shown %d", 1)
	entry := decode(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "shown 1", entry["msg"])
}

func TestLogger_StructuredProviderErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("debug", "json", &buf)

	err := gxoerrors.NewProviderLoadError("otel", "init", errors.New("dial failed"))
	log.Warnf("provider load failed: %v", err)

	entry := decode(t, &buf)
	assert.Equal(t, "ProviderLoadError", entry["error_type"])
	assert.Equal(t, "otel", entry["provider"])
	assert.Equal(t, "init", entry["stage"])
	assert.Contains(t, entry["error"], "dial failed")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("info", "json", &buf).With("component", "loader")

	log.Infof("hello")
	entry := decode(t, &buf)
	assert.Equal(t, "loader", entry["component"])
}

func TestOtelHandler_InjectsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger("info", "json", &buf)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	log.LogCtx(ctx, slog.LevelInfo, "traced")

	entry := decode(t, &buf)
	assert.Equal(t, sc.TraceID().String(), entry["trace_id"])
	assert.Equal(t, sc.SpanID().String(), entry["span_id"])
}

func TestRedactingHandler(t *testing.T) {
	var buf bytes.Buffer
	tracker := secrets.NewSecretTracker()
	tracker.Add("s3cr3t")
	log := logger.NewLogger("info", "json", &buf, logger.WithSecretTracker(tracker))

	log.Log(slog.LevelInfo, "header Bearer s3cr3t rejected", "header", "Bearer s3cr3t", "count", 3)

	entry := decode(t, &buf)
	assert.Equal(t, "header Bearer [REDACTED] rejected", entry["msg"])
	assert.Equal(t, "Bearer [REDACTED]", entry["header"])
	assert.Equal(t, float64(3), entry["count"])
	assert.NotContains(t, buf.String(), "s3cr3t")
}

// Package log defines the logging interface used across gxotel packages.
package log

import (
	"context"
	"log/slog"
)

// Logger is the logging interface accepted by every gxotel component, so
// hosts can plug in their own implementation.
type Logger interface {
	// Debugf logs a formatted message at the DEBUG level.
	Debugf(format string, args ...interface{})
	// Infof logs a formatted message at the INFO level.
	Infof(format string, args ...interface{})
	// Warnf logs a formatted message at the WARN level.
	Warnf(format string, args ...interface{})
	// Errorf logs a formatted message at the ERROR level. Implementations
	// should log a trailing error argument structurally.
	Errorf(format string, args ...interface{})

	// Log logs msg at level with key-value attributes.
	Log(level slog.Level, msg string, args ...interface{})
	// LogCtx is Log with a context, from which implementations may extract
	// trace and span IDs.
	LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{})

	// With returns a Logger that adds args to every entry.
	With(args ...interface{}) Logger
	// IsEnabled reports whether level would be emitted.
	IsEnabled(level slog.Level) bool
}

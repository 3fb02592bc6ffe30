// Package errors defines the typed errors returned by gxotel packages.
package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// --- Core Error Types ---

// ConfigError represents an error encountered while loading or parsing the
// telemetry configuration.
type ConfigError struct {
	Message string
	Cause   error
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}
func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError indicates that configuration content failed schema,
// version or logical checks.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

// ProviderNotFoundError indicates that no provider is registered under the
// requested name, usually because its package was not linked into the binary.
type ProviderNotFoundError struct {
	ProviderName string
	// InstallHint tells the operator how to make the provider available. May be empty.
	InstallHint string
}

func NewProviderNotFoundError(providerName, installHint string) *ProviderNotFoundError {
	return &ProviderNotFoundError{ProviderName: providerName, InstallHint: installHint}
}
func (e *ProviderNotFoundError) Error() string {
	if e.InstallHint != "" {
		return fmt.Sprintf("telemetry provider not found: %s (%s)", e.ProviderName, e.InstallHint)
	}
	return fmt.Sprintf("telemetry provider not found: %s", e.ProviderName)
}

// IsProviderNotFound checks if an error is a ProviderNotFoundError.
func IsProviderNotFound(err error) bool {
	var nf *ProviderNotFoundError
	return errors.As(err, &nf)
}

// ProviderLoadError wraps a failure of a registered provider's factory or
// initializer.
type ProviderLoadError struct {
	ProviderName string
	Stage        string // "factory" or "init"
	Cause        error
}

func NewProviderLoadError(providerName, stage string, cause error) *ProviderLoadError {
	return &ProviderLoadError{ProviderName: providerName, Stage: stage, Cause: cause}
}
func (e *ProviderLoadError) Error() string {
	return fmt.Sprintf("telemetry provider '%s' failed during %s: %v", e.ProviderName, e.Stage, e.Cause)
}
func (e *ProviderLoadError) Unwrap() error { return e.Cause }

// NotInitializedError is returned when the telemetry instance is requested
// before anything initialized it. It signals a programming mistake.
type NotInitializedError struct {
	Operation string
}

func NewNotInitializedError(operation string) *NotInitializedError {
	return &NotInitializedError{Operation: operation}
}
func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("telemetry not initialized: %s called before Init", e.Operation)
}

// PanicError carries a recovered panic value so it can travel as an error.
type PanicError struct {
	Value any
	Stack []byte
}

func NewPanicError(value any) *PanicError {
	return &PanicError{Value: value, Stack: debug.Stack()}
}
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Package secrets defines how configuration references such as ${env:NAME}
// are resolved.
package secrets

import "context"

// Provider resolves secret references.
type Provider interface {
	// GetSecret returns the value for key and whether it exists. An error is
	// returned only when lookup itself failed.
	GetSecret(ctx context.Context, key string) (string, bool, error)
}

package secrets

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	gxosecrets "github.com/gxo-labs/gxotel/pkg/gxotel/v1/secrets"
)

// referencePattern matches ${env:NAME} references. NAME follows the usual
// environment variable rules.
var referencePattern = regexp.MustCompile(`\$\{env:([A-Za-z_][A-Za-z0-9_]*)\}`)

// HasReference reports whether s contains at least one secret reference.
func HasReference(s string) bool {
	return referencePattern.MatchString(s)
}

// Resolver expands secret references in configuration strings and records
// every resolved value in a tracker.
type Resolver struct {
	provider gxosecrets.Provider
	tracker  *SecretTracker
}

// NewResolver creates a Resolver. A nil provider defaults to EnvProvider and
// a nil tracker to a fresh one.
func NewResolver(provider gxosecrets.Provider, tracker *SecretTracker) *Resolver {
	if provider == nil {
		provider = NewEnvProvider()
	}
	if tracker == nil {
		tracker = NewSecretTracker()
	}
	return &Resolver{provider: provider, tracker: tracker}
}

// Tracker returns the tracker holding resolved values.
func (r *Resolver) Tracker() *SecretTracker {
	return r.tracker
}

// Resolve expands every reference in s. A reference to an unset variable is
// a ConfigError naming the variable (never its value).
func (r *Resolver) Resolve(ctx context.Context, s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var firstErr error
	out := referencePattern.ReplaceAllStringFunc(s, func(ref string) string {
		if firstErr != nil {
			return ref
		}
		key := referencePattern.FindStringSubmatch(ref)[1]
		value, found, err := r.provider.GetSecret(ctx, key)
		if err != nil {
			firstErr = gxoerrors.NewConfigError(fmt.Sprintf("failed to resolve secret '%s'", key), err)
			return ref
		}
		if !found {
			firstErr = gxoerrors.NewConfigError(fmt.Sprintf("secret '%s' is not set", key), nil)
			return ref
		}
		r.tracker.Add(value)
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ResolveMap resolves every value of m into a new map. Keys are not expanded.
func (r *Resolver) ResolveMap(ctx context.Context, m map[string]string) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		resolved, err := r.Resolve(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("header '%s': %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

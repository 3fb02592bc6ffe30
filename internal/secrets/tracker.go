package secrets

import (
	"sort"
	"strings"
	"sync"
)

// SecretTracker remembers secret values (exporter header values and resolved
// ${env:...} references) so they can be kept out of logs, events and
// exported span attributes. One tracker is owned by each telemetry instance.
type SecretTracker struct {
	mu              sync.RWMutex
	resolvedSecrets map[string]struct{}
}

// NewSecretTracker creates a new, empty tracker.
func NewSecretTracker() *SecretTracker {
	return &SecretTracker{
		resolvedSecrets: make(map[string]struct{}),
	}
}

// Add marks a value as secret. Empty strings are ignored.
func (t *SecretTracker) Add(secretValue string) {
	if secretValue == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resolvedSecrets[secretValue] = struct{}{}
}

// AddAll marks every value of m as secret.
func (t *SecretTracker) AddAll(m map[string]string) {
	for _, v := range m {
		t.Add(v)
	}
}

// Len returns the number of tracked values.
func (t *SecretTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.resolvedSecrets)
}

// IsTracked reports whether value exactly matches a tracked secret.
func (t *SecretTracker) IsTracked(value string) bool {
	if value == "" {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, found := t.resolvedSecrets[value]
	return found
}

// ContainsTrackedSecret reports whether input contains any tracked secret as
// a substring, e.g. a token embedded in an Authorization header line.
func (t *SecretTracker) ContainsTrackedSecret(input string) bool {
	if input == "" {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	for secret := range t.resolvedSecrets {
		if strings.Contains(input, secret) {
			return true
		}
	}
	return false
}

// Redact replaces every occurrence of a tracked secret in input with
// replacement. Longer secrets are replaced first so a secret that contains
// another is masked whole.
func (t *SecretTracker) Redact(input, replacement string) string {
	if input == "" {
		return input
	}
	t.mu.RLock()
	if len(t.resolvedSecrets) == 0 {
		t.mu.RUnlock()
		return input
	}
	ordered := make([]string, 0, len(t.resolvedSecrets))
	for secret := range t.resolvedSecrets {
		ordered = append(ordered, secret)
	}
	t.mu.RUnlock()

	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})
	for _, secret := range ordered {
		input = strings.ReplaceAll(input, secret, replacement)
	}
	return input
}

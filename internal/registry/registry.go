package registry

import (
	"fmt"
	"sort"
	"sync"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
)

// knownProviders maps provider names shipped with gxotel to the package that
// registers them. It only feeds the install hint of ProviderNotFoundError.
var knownProviders = map[string]string{
	"otel": "github.com/gxo-labs/gxotel/providers/otelprovider",
	"noop": "github.com/gxo-labs/gxotel/internal/noop",
}

// InstallHint returns the command that makes provider name available, or an
// empty string for unknown providers.
func InstallHint(name string) string {
	pkg, ok := knownProviders[name]
	if !ok {
		return ""
	}
	return fmt.Sprintf("run 'go get %s' and add the blank import _ %q to your main package", pkg, pkg)
}

// StaticRegistry implements the gxotel.Registry interface using an in-memory
// map. It provides thread-safe registration and retrieval of provider factories.
type StaticRegistry struct {
	// factories maps the registered provider name to its factory function.
	factories map[string]gxotel.ProviderFactory
	// mu guards factories.
	mu sync.RWMutex
}

// NewStaticRegistry creates a new, empty static registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		factories: make(map[string]gxotel.ProviderFactory),
	}
}

// Register associates a provider name with its factory function. It rejects
// empty names, nil factories and duplicate registrations.
func (r *StaticRegistry) Register(name string, factory gxotel.ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return gxoerrors.NewConfigError("provider registration error: name cannot be empty", nil)
	}
	if factory == nil {
		return gxoerrors.NewConfigError(fmt.Sprintf("provider registration error for '%s': factory cannot be nil", name), nil)
	}
	if _, exists := r.factories[name]; exists {
		return gxoerrors.NewConfigError(fmt.Sprintf("provider registration error: duplicate provider name '%s'", name), nil)
	}

	r.factories[name] = factory
	return nil
}

// Get retrieves the factory registered under name. Unknown names yield a
// ProviderNotFoundError carrying an install hint when one is known.
func (r *StaticRegistry) Get(name string) (gxotel.ProviderFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, gxoerrors.NewProviderNotFoundError(name, InstallHint(name))
	}
	return factory, nil
}

// List returns the registered provider names, sorted.
func (r *StaticRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- Default Global Registry (for registration via init) ---

// globalRegistry receives the package-level Register calls made by provider
// packages from their init functions.
var globalRegistry = NewStaticRegistry()

var _ gxotel.Registry = (*StaticRegistry)(nil)

// Register adds a provider to the global registry. It panics on error:
// registration happens in init functions, where a duplicate or empty name is
// a programming mistake that must surface immediately.
func Register(name string, factory gxotel.ProviderFactory) {
	if err := globalRegistry.Register(name, factory); err != nil {
		panic(fmt.Errorf("failed to register telemetry provider '%s' globally: %w", name, err))
	}
}

// Default is the global registry holding every provider linked into the binary.
var Default gxotel.Registry = globalRegistry

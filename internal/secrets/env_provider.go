package secrets

import (
	"context"
	"os"

	gxosecrets "github.com/gxo-labs/gxotel/pkg/gxotel/v1/secrets"
)

// EnvProvider resolves secrets from environment variables.
type EnvProvider struct{}

// NewEnvProvider creates a new environment variable secrets provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// GetSecret returns the value of the environment variable key and whether it is set.
func (p *EnvProvider) GetSecret(_ context.Context, key string) (string, bool, error) {
	value, found := os.LookupEnv(key)
	return value, found, nil
}

var _ gxosecrets.Provider = (*EnvProvider)(nil)

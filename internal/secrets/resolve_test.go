package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gxo-labs/gxotel/internal/secrets"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapProvider map[string]string

func (m mapProvider) GetSecret(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

type failingProvider struct{}

func (failingProvider) GetSecret(context.Context, string) (string, bool, error) {
	return "", false, errors.New("vault sealed")
}

func TestResolver_Resolve(t *testing.T) {
	r := secrets.NewResolver(mapProvider{"TOKEN": "t0k3n", "TENANT": "acme"}, nil)

	out, err := r.Resolve(context.Background(), "Bearer ${env:TOKEN}")
	require.NoError(t, err)
	assert.Equal(t, "Bearer t0k3n", out)

	out, err = r.Resolve(context.Background(), "${env:TENANT}/${env:TOKEN}")
	require.NoError(t, err)
	assert.Equal(t, "acme/t0k3n", out)

	out, err = r.Resolve(context.Background(), "plain value")
	require.NoError(t, err)
	assert.Equal(t, "plain value", out)

	assert.True(t, r.Tracker().IsTracked("t0k3n"))
	assert.True(t, r.Tracker().IsTracked("acme"))
}

func TestResolver_MissingVariable(t *testing.T) {
	r := secrets.NewResolver(mapProvider{}, nil)

	_, err := r.Resolve(context.Background(), "Bearer ${env:MISSING}")
	require.Error(t, err)

	var cfgErr *gxoerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "MISSING")
}

func TestResolver_ProviderFailure(t *testing.T) {
	r := secrets.NewResolver(failingProvider{}, nil)

	_, err := r.Resolve(context.Background(), "${env:ANY}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault sealed")
}

func TestResolver_ResolveMap(t *testing.T) {
	r := secrets.NewResolver(mapProvider{"KEY": "k"}, nil)

	out, err := r.ResolveMap(context.Background(), map[string]string{
		"api-key": "${env:KEY}",
		"static":  "v",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"api-key": "k", "static": "v"}, out)

	out, err = r.ResolveMap(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestResolver_EnvProviderDefault(t *testing.T) {
	t.Setenv("GXOTEL_TEST_SECRET", "from-env")
	r := secrets.NewResolver(nil, nil)

	out, err := r.Resolve(context.Background(), "${env:GXOTEL_TEST_SECRET}")
	require.NoError(t, err)
	assert.Equal(t, "from-env", out)
}

func TestHasReference(t *testing.T) {
	assert.True(t, secrets.HasReference("x ${env:A_B}"))
	assert.False(t, secrets.HasReference("${env:}"))
	assert.False(t, secrets.HasReference("plain"))
}

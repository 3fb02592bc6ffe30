package config

import (
	"context"

	"github.com/gxo-labs/gxotel/internal/secrets"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxosecrets "github.com/gxo-labs/gxotel/pkg/gxotel/v1/secrets"
)

// ResolveSecrets expands ${env:NAME} references in header values and in the
// endpoint through provider. Resolved header values are recorded in tracker;
// endpoints are not treated as secret. cfg is updated in place only when
// every reference resolves.
func ResolveSecrets(ctx context.Context, cfg *gxotel.Config, provider gxosecrets.Provider, tracker *secrets.SecretTracker) error {
	resolver := secrets.NewResolver(provider, tracker)

	headers, err := resolver.ResolveMap(ctx, cfg.Headers)
	if err != nil {
		return err
	}
	endpoint, err := secrets.NewResolver(provider, nil).Resolve(ctx, cfg.Endpoint)
	if err != nil {
		return err
	}

	cfg.Headers = headers
	cfg.Endpoint = endpoint
	return nil
}

// Package config loads, validates and overlays the telemetry configuration.
package config

import (
	"time"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
)

// SupportedSchemaVersionConstraint is the schemaVersion major accepted by
// this build.
const SupportedSchemaVersionConstraint = "v1"

// CurrentSchemaVersion is assumed when a document omits schemaVersion.
const CurrentSchemaVersion = "v1.0.0"

// DefaultTimeout is the exporter timeout applied when none is configured.
const DefaultTimeout = 10 * time.Second

// Compression values accepted for Config.Compression.
const (
	CompressionNone = ""
	CompressionGzip = "gzip"
)

// DefaultRedactedKeywords are merged into every configuration's
// RedactedKeywords by WithDefaults.
var DefaultRedactedKeywords = []string{"password", "token", "secret", "apikey", "privatekey", "authorization", "bearer"}

// WithDefaults returns a copy of cfg with unset fields filled in. It never
// changes Enabled.
func WithDefaults(cfg gxotel.Config) gxotel.Config {
	out := cfg
	if out.SchemaVersion == "" {
		out.SchemaVersion = CurrentSchemaVersion
	}
	if out.Provider == "" {
		out.Provider = gxotel.DefaultProviderName
	}
	if out.Protocol == "" {
		out.Protocol = gxotel.ProtocolGRPC
	}
	if out.Timeout == 0 {
		out.Timeout = DefaultTimeout
	}
	out.RedactedKeywords = mergeKeywords(DefaultRedactedKeywords, cfg.RedactedKeywords)
	return out
}

func mergeKeywords(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, kw := range list {
			if kw == "" {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gxo-labs/gxotel/internal/config"
	"github.com/gxo-labs/gxotel/internal/secrets"
	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
schemaVersion: v1.0.0
enabled: true
serviceName: checkout
endpoint: collector:4317
protocol: grpc
insecure: true
compression: gzip
timeout: 5s
samplingRatio: 0.25
deploymentEnvironment: staging
headers:
  api-key: abc
attributes:
  team: payments
  shard: 3
  regions: [eu, us]
redactedKeywords: [card]
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := config.Load([]byte(validConfig), "test.yaml")
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "checkout", cfg.ServiceName)
	assert.Equal(t, "collector:4317", cfg.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.SamplingRatio)
	assert.InDelta(t, 0.25, *cfg.SamplingRatio, 1e-9)
	assert.Equal(t, "payments", cfg.Attributes["team"])
	assert.Equal(t, 3, cfg.Attributes["shard"])
	assert.Equal(t, map[string]string{"api-key": "abc"}, cfg.Headers)
	assert.Equal(t, "staging", cfg.EffectiveEnvironment())
}

func TestLoad_DefaultsSchemaVersion(t *testing.T) {
	cfg, err := config.Load([]byte("enabled: false\n"), "min.yaml")
	require.NoError(t, err)
	assert.Equal(t, config.CurrentSchemaVersion, cfg.SchemaVersion)
	assert.False(t, cfg.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		contains string
	}{
		{name: "empty", input: "  \n", contains: "empty"},
		{name: "unknown field", input: "enabled: true\nendpiont: x\n", contains: "endpiont"},
		{name: "bad protocol", input: "protocol: carrier-pigeon\n", contains: "protocol"},
		{name: "ratio out of range", input: "samplingRatio: 1.5\n", contains: "samplingRatio"},
		{name: "bad timeout", input: "timeout: soon\n", contains: "timeout"},
		{name: "wrong major", input: "schemaVersion: v2.0.0\n", contains: "not compatible"},
		{name: "nested attribute", input: "attributes:\n  a:\n    b: c\n", contains: "attributes"},
		{name: "malformed yaml", input: "enabled: [\n", contains: "YAML"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load([]byte(tc.input), "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "checkout", cfg.ServiceName)

	_, err = config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *gxoerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	_, err = config.LoadFromFile("")
	require.ErrorAs(t, err, &cfgErr)
}

func TestCheckSchemaVersion(t *testing.T) {
	assert.NoError(t, config.CheckSchemaVersion(""))
	assert.NoError(t, config.CheckSchemaVersion("v1.2.3"))
	assert.NoError(t, config.CheckSchemaVersion("1.0.0"))
	assert.Error(t, config.CheckSchemaVersion("v2.0.0"))
	assert.Error(t, config.CheckSchemaVersion("latest"))
}

func TestValidate_InCodeConfig(t *testing.T) {
	ratio := -0.1
	cfg := &gxotel.Config{
		Protocol:      "udp",
		SamplingRatio: &ratio,
		Timeout:       -time.Second,
		Endpoint:      "ftp://collector",
		Attributes:    gxotel.Attributes{"ok": "v", "bad": map[string]any{"x": 1}},
	}

	errs := config.ValidateStructure(cfg)
	assert.Len(t, errs, 5)

	err := config.Validate(cfg)
	var vErr *gxoerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), "5 validation error(s)")

	assert.NoError(t, config.Validate(&gxotel.Config{}))
	assert.Error(t, config.Validate(nil))
}

func TestWithDefaults(t *testing.T) {
	cfg := config.WithDefaults(gxotel.Config{RedactedKeywords: []string{"card", "token"}})

	assert.False(t, cfg.Enabled)
	assert.Equal(t, gxotel.DefaultProviderName, cfg.Provider)
	assert.Equal(t, gxotel.ProtocolGRPC, cfg.Protocol)
	assert.Equal(t, config.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, config.CurrentSchemaVersion, cfg.SchemaVersion)
	assert.Contains(t, cfg.RedactedKeywords, "card")
	assert.Contains(t, cfg.RedactedKeywords, "password")
	assert.Len(t, cfg.RedactedKeywords, len(config.DefaultRedactedKeywords)+1)
}

func envMap(m map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	cfg, err := config.Load([]byte(validConfig), "test.yaml")
	require.NoError(t, err)

	err = config.ApplyEnv(cfg, envMap(map[string]string{
		config.EnvServiceName:           "from-env",
		config.EnvEndpoint:              "https://otel.example.com:4318",
		config.EnvProtocol:              "HTTP/PROTOBUF",
		config.EnvHeaders:               "authorization=Bearer t, x-tenant = acme ,broken",
		config.EnvInsecure:              "false",
		config.EnvTimeout:               "2500",
		config.EnvSamplerArg:            "0.5",
		config.EnvDeploymentEnvironment: "prod",
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.ServiceName)
	assert.Equal(t, "https://otel.example.com:4318", cfg.Endpoint)
	assert.Equal(t, gxotel.ProtocolHTTPProtobuf, cfg.Protocol)
	assert.Equal(t, map[string]string{"api-key": "abc", "authorization": "Bearer t", "x-tenant": "acme"}, cfg.Headers)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	assert.InDelta(t, 0.5, *cfg.SamplingRatio, 1e-9)
	assert.Equal(t, "prod", cfg.EffectiveEnvironment())
	assert.True(t, cfg.Enabled)
}

func TestApplyEnv_Disabled(t *testing.T) {
	cfg := &gxotel.Config{Enabled: true}
	require.NoError(t, config.ApplyEnv(cfg, envMap(map[string]string{config.EnvSDKDisabled: "TRUE"})))
	assert.False(t, cfg.Enabled)

	require.NoError(t, config.ApplyEnv(cfg, envMap(map[string]string{config.EnvSDKDisabled: "false"})))
	assert.True(t, cfg.Enabled)

	require.NoError(t, config.ApplyEnv(cfg, envMap(nil)))
	assert.True(t, cfg.Enabled)
}

func TestApplyEnv_TracesSpecificWins(t *testing.T) {
	cfg := &gxotel.Config{}
	require.NoError(t, config.ApplyEnv(cfg, envMap(map[string]string{
		config.EnvEndpoint:       "general:4317",
		config.EnvTracesEndpoint: "traces:4317",
		config.EnvTracesInsecure: "true",
		config.EnvTimeout:        "3s",
	})))
	assert.Equal(t, "traces:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestApplyEnv_Invalid(t *testing.T) {
	testCases := map[string]string{
		config.EnvSDKDisabled: "maybe",
		config.EnvTimeout:     "-5",
		config.EnvSamplerArg:  "half",
	}
	for key, value := range testCases {
		t.Run(key, func(t *testing.T) {
			err := config.ApplyEnv(&gxotel.Config{}, envMap(map[string]string{key: value}))
			var vErr *gxoerrors.ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}

	assert.Error(t, config.ApplyEnv(nil, nil))
}

type staticSecrets map[string]string

func (s staticSecrets) GetSecret(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

func TestResolveSecrets(t *testing.T) {
	tracker := secrets.NewSecretTracker()
	cfg := &gxotel.Config{
		Endpoint: "${env:COLLECTOR}",
		Headers:  map[string]string{"authorization": "Bearer ${env:TOKEN}", "x-static": "v"},
	}

	err := config.ResolveSecrets(context.Background(), cfg, staticSecrets{"TOKEN": "t0k", "COLLECTOR": "otel:4317"}, tracker)
	require.NoError(t, err)

	assert.Equal(t, "otel:4317", cfg.Endpoint)
	assert.Equal(t, "Bearer t0k", cfg.Headers["authorization"])
	assert.True(t, tracker.IsTracked("t0k"))
	assert.False(t, tracker.IsTracked("otel:4317"))
}

func TestResolveSecrets_MissingLeavesConfigUntouched(t *testing.T) {
	cfg := &gxotel.Config{Headers: map[string]string{"authorization": "${env:NOPE}"}}

	err := config.ResolveSecrets(context.Background(), cfg, staticSecrets{}, secrets.NewSecretTracker())
	require.Error(t, err)
	assert.Equal(t, "${env:NOPE}", cfg.Headers["authorization"])
}

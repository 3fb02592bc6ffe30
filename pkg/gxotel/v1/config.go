package v1

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultProviderName is the provider resolved when Config.Provider is empty.
const DefaultProviderName = "otel"

// Protocol names accepted for Config.Protocol.
const (
	ProtocolGRPC         = "grpc"
	ProtocolHTTP         = "http"
	ProtocolHTTPProtobuf = "http/protobuf"
)

// Config is the telemetry configuration. The zero value disables tracing.
type Config struct {
	SchemaVersion string `yaml:"schemaVersion,omitempty" json:"schemaVersion,omitempty"`
	// Enabled turns real tracing on. When false every load short-circuits to no-op.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Provider is the registry name of the backend. Empty means DefaultProviderName.
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`
	// ServiceName is attributed to every span. Empty means the telemetry name.
	ServiceName string `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`

	// Export destination. Only meaningful to real backends.
	Endpoint    string            `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Protocol    string            `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Insecure    bool              `yaml:"insecure,omitempty" json:"insecure,omitempty"`
	Compression string            `yaml:"compression,omitempty" json:"compression,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// SamplingRatio in [0,1]. Nil samples everything.
	SamplingRatio *float64 `yaml:"samplingRatio,omitempty" json:"samplingRatio,omitempty"`

	Environment           string `yaml:"environment,omitempty" json:"environment,omitempty"`
	DeploymentEnvironment string `yaml:"deploymentEnvironment,omitempty" json:"deploymentEnvironment,omitempty"`

	// Auxiliary sinks.
	ConsoleExporter bool `yaml:"consoleExporter,omitempty" json:"consoleExporter,omitempty"`
	StorageExporter bool `yaml:"storageExporter,omitempty" json:"storageExporter,omitempty"`

	// Attributes are merged into every span.
	Attributes Attributes `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	// RedactedKeywords are matched case-insensitively against attribute keys
	// and exception messages before they reach the backend.
	RedactedKeywords []string `yaml:"redactedKeywords,omitempty" json:"redactedKeywords,omitempty"`
}

// ProviderName returns the provider to resolve.
func (c Config) ProviderName() string {
	if c.Provider == "" {
		return DefaultProviderName
	}
	return c.Provider
}

// EffectiveServiceName returns ServiceName, falling back to name.
func (c Config) EffectiveServiceName(name string) string {
	if c.ServiceName != "" {
		return c.ServiceName
	}
	return name
}

// EffectiveEnvironment returns DeploymentEnvironment, falling back to Environment.
func (c Config) EffectiveEnvironment() string {
	if c.DeploymentEnvironment != "" {
		return c.DeploymentEnvironment
	}
	return c.Environment
}

// CanonicalKey returns a stable string for name and c. Two configurations
// with equal content produce equal keys regardless of map iteration order.
func (c Config) CanonicalKey(name string) string {
	// encoding/json writes struct fields in declaration order and sorts map keys.
	raw, err := json.Marshal(c)
	if err != nil {
		// Attributes holding unencodable values still need a key.
		raw = []byte(c.fallbackKey())
	}
	return name + "\x00" + string(raw)
}

func (c Config) fallbackKey() string {
	shadow := c
	shadow.Attributes = nil
	raw, _ := json.Marshal(shadow)
	return string(raw) + "|attrs:" + fmtAttributes(c.Attributes)
}

func fmtAttributes(attrs Attributes) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, attrs[k]))
	}
	return strings.Join(parts, ",")
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
)

// Standard OpenTelemetry environment variables read by ApplyEnv.
const (
	EnvSDKDisabled           = "OTEL_SDK_DISABLED"
	EnvServiceName           = "OTEL_SERVICE_NAME"
	EnvEndpoint              = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTracesEndpoint        = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	EnvProtocol              = "OTEL_EXPORTER_OTLP_PROTOCOL"
	EnvHeaders               = "OTEL_EXPORTER_OTLP_HEADERS"
	EnvInsecure              = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvTracesInsecure        = "OTEL_EXPORTER_OTLP_TRACES_INSECURE"
	EnvCompression           = "OTEL_EXPORTER_OTLP_COMPRESSION"
	EnvTimeout               = "OTEL_EXPORTER_OTLP_TIMEOUT"
	EnvSamplerArg            = "OTEL_TRACES_SAMPLER_ARG"
	EnvDeploymentEnvironment = "OTEL_DEPLOYMENT_ENVIRONMENT"
)

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays the standard OTEL_* variables onto cfg. Variables win
// over file values. OTEL_SDK_DISABLED=true disables tracing and "false"
// enables it; an unset variable leaves Enabled alone. A nil lookup reads the
// process environment.
func ApplyEnv(cfg *gxotel.Config, lookup LookupFunc) error {
	if cfg == nil {
		return gxoerrors.NewConfigError("cannot apply environment to a nil configuration", nil)
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvSDKDisabled); ok {
		switch strings.ToLower(v) {
		case "true":
			cfg.Enabled = false
		case "false":
			cfg.Enabled = true
		default:
			return gxoerrors.NewValidationError(fmt.Sprintf("%s must be 'true' or 'false', got '%s'", EnvSDKDisabled, v), nil)
		}
	}
	if v, ok := get(EnvServiceName); ok {
		cfg.ServiceName = v
	}
	if v, ok := get(EnvTracesEndpoint); ok {
		cfg.Endpoint = v
	} else if v, ok := get(EnvEndpoint); ok {
		cfg.Endpoint = v
	}
	if v, ok := get(EnvProtocol); ok {
		cfg.Protocol = strings.ToLower(v)
	}
	if v, ok := get(EnvHeaders); ok {
		headers := parseHeaders(v)
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(headers))
		}
		for k, hv := range headers {
			cfg.Headers[k] = hv
		}
	}
	insecureVal, insecureSet := get(EnvInsecure)
	tracesInsecureVal, tracesInsecureSet := get(EnvTracesInsecure)
	if insecureSet || tracesInsecureSet {
		cfg.Insecure = isInsecure(insecureVal, tracesInsecureVal)
	}
	if v, ok := get(EnvCompression); ok {
		cfg.Compression = strings.ToLower(v)
	}
	if v, ok := get(EnvTimeout); ok {
		timeout, valid := parseTimeout(v)
		if !valid {
			return gxoerrors.NewValidationError(fmt.Sprintf("%s has invalid value '%s' (milliseconds or Go duration expected)", EnvTimeout, v), nil)
		}
		cfg.Timeout = timeout
	}
	if v, ok := get(EnvSamplerArg); ok {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return gxoerrors.NewValidationError(fmt.Sprintf("%s has invalid value '%s'", EnvSamplerArg, v), err)
		}
		cfg.SamplingRatio = &ratio
	}
	if v, ok := get(EnvDeploymentEnvironment); ok {
		cfg.DeploymentEnvironment = v
	}
	return nil
}

// parseHeaders converts a comma-separated key=value list into a map. Pairs
// without "=" or with an empty key are skipped.
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}
	for _, pair := range strings.Split(headerStr, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(kv[1])
	}
	return headers
}

// parseTimeout accepts integer milliseconds (the OTLP convention) or a Go
// duration string. Negative values are invalid.
func parseTimeout(timeoutStr string) (time.Duration, bool) {
	if ms, err := strconv.ParseInt(timeoutStr, 10, 64); err == nil {
		if ms < 0 {
			return 0, false
		}
		return time.Duration(ms) * time.Millisecond, true
	}
	if d, err := time.ParseDuration(timeoutStr); err == nil && d >= 0 {
		return d, true
	}
	return 0, false
}

// isInsecure reports whether any of the flags is "true".
func isInsecure(insecureFlag ...string) bool {
	for _, flag := range insecureFlag {
		if strings.ToLower(strings.TrimSpace(flag)) == "true" {
			return true
		}
	}
	return false
}

package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
)

// providerNameRegex matches registry names such as "otel" or "my-vendor".
var providerNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// attributeKeyRegex matches dotted attribute keys such as "service.team".
var attributeKeyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-/]*$`)

// ValidateStructure checks cross-field rules that the JSON schema cannot
// express and returns every violation found. It also runs on
// configurations built in code, which never pass through the schema.
func ValidateStructure(cfg *gxotel.Config) []error {
	var errs []error

	if cfg.Provider != "" && !providerNameRegex.MatchString(cfg.Provider) {
		errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("provider name '%s' contains invalid characters", cfg.Provider), nil))
	}

	switch strings.ToLower(cfg.Protocol) {
	case "", gxotel.ProtocolGRPC, gxotel.ProtocolHTTP, gxotel.ProtocolHTTPProtobuf:
	default:
		errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("unsupported protocol '%s' (allowed: grpc, http, http/protobuf)", cfg.Protocol), nil))
	}

	switch strings.ToLower(cfg.Compression) {
	case CompressionNone, CompressionGzip, "none":
	default:
		errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("unsupported compression '%s' (allowed: gzip, none)", cfg.Compression), nil))
	}

	if cfg.Timeout < 0 {
		errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("timeout cannot be negative: %v", cfg.Timeout), nil))
	}

	if cfg.SamplingRatio != nil && (*cfg.SamplingRatio < 0 || *cfg.SamplingRatio > 1) {
		errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("samplingRatio must be between 0 and 1, got %v", *cfg.SamplingRatio), nil))
	}

	if cfg.Endpoint != "" && strings.Contains(cfg.Endpoint, "://") {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil {
			errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("endpoint '%s' is not a valid URL", cfg.Endpoint), err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("endpoint '%s' must use http or https", cfg.Endpoint), nil))
		}
	}

	for key := range cfg.Headers {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, gxoerrors.NewValidationError("header names cannot be empty", nil))
			break
		}
	}

	for key, value := range cfg.Attributes {
		if !attributeKeyRegex.MatchString(key) {
			errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("attribute key '%s' is invalid", key), nil))
			continue
		}
		if !isAttributeValue(value) {
			errs = append(errs, gxoerrors.NewValidationError(fmt.Sprintf("attribute '%s' has unsupported value type %T", key, value), nil))
		}
	}

	for _, kw := range cfg.RedactedKeywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, gxoerrors.NewValidationError("redactedKeywords cannot contain empty entries", nil))
			break
		}
	}

	return errs
}

// Validate runs ValidateStructure and folds the result into one
// ValidationError.
func Validate(cfg *gxotel.Config) error {
	if cfg == nil {
		return gxoerrors.NewValidationError("configuration is nil", nil)
	}
	errs := ValidateStructure(cfg)
	if len(errs) == 0 {
		return nil
	}
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return gxoerrors.NewValidationError(
		fmt.Sprintf("configuration has %d validation error(s):\n- %s", len(errs), strings.Join(messages, "\n- ")),
		errs[0],
	)
}

// isAttributeValue accepts scalars and homogeneous-or-mixed slices of scalars.
func isAttributeValue(v any) bool {
	switch tv := v.(type) {
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return true
	case []string, []bool, []int, []int64, []float64:
		return true
	case []any:
		for _, item := range tv {
			switch item.(type) {
			case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
			default:
				return false
			}
		}
		return true
	default:
		return false
	}
}

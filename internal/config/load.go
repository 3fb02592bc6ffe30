package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Load parses a YAML (or JSON) telemetry configuration. The document is
// checked against the embedded JSON schema, strictly decoded, checked for a
// compatible schemaVersion and logically validated. filePathHint only
// appears in error messages.
func Load(configYAML []byte, filePathHint string) (*gxotel.Config, error) {
	if len(bytes.TrimSpace(configYAML)) == 0 {
		return nil, gxoerrors.NewConfigError(fmt.Sprintf("telemetry configuration '%s' is empty", filePathHint), nil)
	}

	if err := ValidateWithSchema(configYAML); err != nil {
		return nil, gxoerrors.NewConfigError(fmt.Sprintf("telemetry configuration '%s' failed schema validation", filePathHint), err)
	}

	var cfg gxotel.Config
	if err := yamlUnmarshalStrict(configYAML, &cfg); err != nil {
		return nil, gxoerrors.NewConfigError(fmt.Sprintf("failed to parse telemetry configuration '%s'", filePathHint), err)
	}

	if err := CheckSchemaVersion(cfg.SchemaVersion); err != nil {
		return nil, gxoerrors.NewValidationError(fmt.Sprintf("telemetry configuration '%s'", filePathHint), err)
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = CurrentSchemaVersion
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and loads the configuration at filePath.
func LoadFromFile(filePath string) (*gxotel.Config, error) {
	if filePath == "" {
		return nil, gxoerrors.NewConfigError("configuration file path cannot be empty", nil)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, gxoerrors.NewConfigError(fmt.Sprintf("failed to get absolute path for '%s'", filePath), err)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, gxoerrors.NewConfigError(fmt.Sprintf("failed to read configuration file '%s'", absPath), err)
	}
	return Load(content, absPath)
}

// CheckSchemaVersion accepts an empty version (meaning current) or any
// semantic version whose major is SupportedSchemaVersionConstraint. A
// missing "v" prefix is tolerated.
func CheckSchemaVersion(version string) error {
	if version == "" {
		return nil
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid schemaVersion format: '%s'", version)
	}
	if semver.Major(v) != SupportedSchemaVersionConstraint {
		return fmt.Errorf("schemaVersion '%s' is not compatible with required '%s'", version, SupportedSchemaVersionConstraint)
	}
	return nil
}

// yamlUnmarshalStrict rejects fields that Config does not declare, so typos
// such as "endpiont" fail loudly.
func yamlUnmarshalStrict(in []byte, out interface{}) error {
	decoder := yaml.NewDecoder(bytes.NewReader(in))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("YAML parsing error: %w", err)
	}
	return nil
}

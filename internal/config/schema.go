package config

import (
	_ "embed"
	"fmt"
	"sync"

	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed gxotel_config_v1.json
var schemaV1Bytes []byte

var (
	schemaV1   *gojsonschema.Schema
	schemaOnce sync.Once
	schemaErr  error
)

// loadSchema compiles the embedded schema once.
func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		if len(schemaV1Bytes) == 0 {
			schemaErr = gxoerrors.NewConfigError("embedded schema 'gxotel_config_v1.json' is empty", nil)
			return
		}
		schemaV1, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaV1Bytes))
		if schemaErr != nil {
			schemaErr = gxoerrors.NewConfigError("failed to compile embedded schema 'gxotel_config_v1.json'", schemaErr)
		}
	})
	return schemaV1, schemaErr
}

// ValidateWithSchema validates a YAML or JSON document against the embedded
// configuration schema. Every violation is listed in the returned
// ValidationError.
func ValidateWithSchema(documentYAML []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	// Not strict: the schema reports unknown fields with better paths than
	// the decoder does.
	var doc interface{}
	if err := yaml.Unmarshal(documentYAML, &doc); err != nil {
		return gxoerrors.NewConfigError("failed to parse configuration YAML for schema validation", err)
	}
	if doc == nil {
		return gxoerrors.NewValidationError("configuration document is empty", nil)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return gxoerrors.NewConfigError("schema validation process failed", err)
	}
	if result.Valid() {
		return nil
	}

	errMsg := "configuration failed JSON schema validation:"
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" || field == "" {
			field = desc.Context().String()
		}
		errMsg += fmt.Sprintf("\n  - Field '%s': %s", field, desc.Description())
	}
	return gxoerrors.NewValidationError(errMsg, nil)
}

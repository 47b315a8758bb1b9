// internal/validation/schemas.go
package validation

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"
)

// The voice and model configuration documents are opaque to the rest of the
// system; validation only checks the contract the downstream deployment
// platform requires.

const voiceConfigSchemaJSON = `{
	"type": "object",
	"required": ["provider", "voiceId", "language"],
	"properties": {
		"provider": {"type": "string", "minLength": 1},
		"voiceId": {"type": "string", "minLength": 1},
		"language": {"type": "string", "pattern": "^[a-z]{2}(-[A-Z]{2})?$"},
		"speakingRate": {"type": "number", "minimum": 0.5, "maximum": 2.0},
		"ssmlEnabled": {"type": "boolean"}
	}
}`

const modelConfigSchemaJSON = `{
	"type": "object",
	"required": ["provider", "model"],
	"properties": {
		"provider": {"type": "string", "minLength": 1},
		"model": {"type": "string", "minLength": 1},
		"temperature": {"type": "number", "minimum": 0, "maximum": 2},
		"maxTokens": {"type": "integer", "minimum": 1},
		"topP": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

var (
	voiceConfigSchema = mustCompileSchema(voiceConfigSchemaJSON)
	modelConfigSchema = mustCompileSchema(modelConfigSchemaJSON)
)

func mustCompileSchema(schemaJSON string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic("validation: invalid embedded schema: " + err.Error())
	}
	return schema
}

// configMatchesSchema reports whether a raw config document is present and
// conforms to the given schema.
func configMatchesSchema(raw json.RawMessage, schema *gojsonschema.Schema) bool {
	return len(configSchemaViolations(raw, schema)) == 0 && len(raw) > 0
}

// configSchemaViolations returns human-readable schema violations for a raw
// config document. A missing document yields a single "missing" violation.
func configSchemaViolations(raw json.RawMessage, schema *gojsonschema.Schema) []string {
	if len(raw) == 0 {
		return []string{"configuration document is missing"}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{"configuration document is not valid JSON: " + err.Error()}
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations
}

package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/certidao-ocr/constants"
)

// BuildCertidaoJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Every field is optional and nullable; unknown keys are allowed because they are ignored downstream.
func BuildCertidaoJSONSchema() map[string]any {
	props := make(map[string]any, len(constants.Fields))
	for _, f := range constants.Fields {
		props[f.Key] = map[string]any{
			"type":        []string{"string", "null"},
			"description": f.Description,
		}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
	}
}

// CompileCertidaoSchema compiles the certidão schema. Compile once and reuse
// the result; compilation is the expensive part.
func CompileCertidaoSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(BuildCertidaoJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("certidao.schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("certidao.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateFields checks a recovered mapping against a compiled schema.
func ValidateFields(schema *jsonschema.Schema, fields map[string]any) error {
	if err := schema.Validate(PlainJSON(fields)); err != nil {
		return fmt.Errorf("fields do not match schema: %w", err)
	}
	return nil
}

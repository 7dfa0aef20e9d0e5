package annotate

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// annotationSchema validates generator responses before merge-back. A
// response that fails validation is a terminal failure for its class.
const annotationSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["id", "description", "confidence", "methods"],
	"properties": {
		"id": {"type": "string"},
		"description": {"type": "string"},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"methods": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["method_index", "description", "confidence"],
				"properties": {
					"method_index": {"type": "integer", "minimum": 0},
					"description": {"type": "string"},
					"confidence": {"type": "integer", "minimum": 0, "maximum": 100}
				}
			}
		}
	}
}`

var compiledSchema = jsonschema.MustCompileString("annotation.json", annotationSchema)

// ParseAnnotation validates raw generator output against the response
// schema and decodes it. Schema mismatches surface as TerminalError.
func ParseAnnotation(raw []byte) (*ClassAnnotation, error) {
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, &TerminalError{Status: "schema", Message: fmt.Sprintf("response is not JSON: %v", err)}
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return nil, &TerminalError{Status: "schema", Message: err.Error()}
	}

	var ann ClassAnnotation
	if err := json.Unmarshal(raw, &ann); err != nil {
		return nil, &TerminalError{Status: "schema", Message: err.Error()}
	}
	return &ann, nil
}

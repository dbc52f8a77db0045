package utils

import (
	"encoding/json"
	"fmt"

	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

// GenerateSchema generates the JSON schema for type T. Used by
// internal/httpapi to publish each condition rule's settings schema for
// GET /condition-rules/schema, so a host building a rule editor doesn't
// need to hardcode rule fields.
func GenerateSchema[T any]() json.RawMessage {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("failed to generate schema: %v", err))
	}

	// Convert schema to map directly through JSON marshaling
	// This is necessary because the schema object doesn't expose its internal structure
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal schema: %v", err))
	}

	return schemaBytes
}

package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/xraph/renderrelay/catalog"
)

func TestValidatorEmptySchema(t *testing.T) {
	v := catalog.NewValidator()

	if err := v.Validate(nil, map[string]any{"key": "value"}); err != nil {
		t.Fatal("empty schema should skip validation, got:", err)
	}
}

func TestValidatorValidPayload(t *testing.T) {
	v := catalog.NewValidator()

	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"totalDocuments": {"type": "integer"},
			"format": {"type": "string"}
		},
		"required": ["totalDocuments", "format"]
	}`)

	data := map[string]any{
		"totalDocuments": 3,
		"format":         "pdf",
	}

	if err := v.Validate(schema, data); err != nil {
		t.Fatal("valid payload should pass, got:", err)
	}
}

func TestValidatorMissingRequired(t *testing.T) {
	v := catalog.NewValidator()

	schema := json.RawMessage(`{"type":"object","required":["batchId"]}`)

	if err := v.Validate(schema, map[string]any{"other": "value"}); err == nil {
		t.Fatal("expected validation error for missing required field")
	}
}

func TestValidatorWrongType(t *testing.T) {
	v := catalog.NewValidator()

	schema := json.RawMessage(`{"type":"object","properties":{"count":{"type":"integer"}}}`)

	if err := v.Validate(schema, map[string]any{"count": "not-a-number"}); err == nil {
		t.Fatal("expected validation error for wrong type")
	}
}

func TestValidatorCaching(t *testing.T) {
	v := catalog.NewValidator()

	schema := json.RawMessage(`{"type":"object","properties":{"x":{"type":"string"}}}`)
	data := map[string]any{"x": "hello"}

	for range 2 {
		if err := v.Validate(schema, data); err != nil {
			t.Fatal(err)
		}
	}
}

package tools

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
)

func sampleSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"path":  {Type: "string"},
			"count": {Type: "integer"},
			"tags":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"note":  {Types: []string{"string", "null"}},
		},
		Required: []string{"path"},
	}
}

func TestBuildParamTable(t *testing.T) {
	table := BuildParamTable(sampleSchema())

	if len(table) != 4 {
		t.Fatalf("Expected 4 params, got %d", len(table))
	}

	path := table["path"]
	if path.Kind != KindString || !path.Required {
		t.Errorf("Expected path to be a required string, got %+v", path)
	}

	count := table["count"]
	if count.Kind != KindInteger || count.Required {
		t.Errorf("Expected count to be an optional integer, got %+v", count)
	}

	tags := table["tags"]
	if tags.Kind != KindArray || tags.Item != KindString {
		t.Errorf("Expected tags to be an array of strings, got %+v", tags)
	}

	note := table["note"]
	if note.Kind != KindString || !note.Nullable {
		t.Errorf("Expected note to be a nullable string, got %+v", note)
	}
}

func TestBindMissingRequired(t *testing.T) {
	schema := sampleSchema()
	table := BuildParamTable(schema)

	err := table.Bind(schema, map[string]any{"count": 3})
	if err == nil {
		t.Fatal("Expected error for missing required param")
	}
}

func TestBindUnknownParam(t *testing.T) {
	schema := sampleSchema()
	table := BuildParamTable(schema)

	err := table.Bind(schema, map[string]any{"path": "a.txt", "bogus": true})
	if err == nil {
		t.Fatal("Expected error for unknown param")
	}
}

func TestBindKindMismatch(t *testing.T) {
	schema := sampleSchema()
	table := BuildParamTable(schema)

	err := table.Bind(schema, map[string]any{"path": 42})
	if err == nil {
		t.Fatal("Expected error for wrong param type")
	}
}

func TestBindValid(t *testing.T) {
	schema := sampleSchema()
	table := BuildParamTable(schema)

	args := map[string]any{
		"path":  "src/main.go",
		"count": float64(2),
		"tags":  []any{"a", "b"},
	}
	if err := table.Bind(schema, args); err != nil {
		t.Fatalf("Expected valid args to bind, got %v", err)
	}
}

func TestBindNullable(t *testing.T) {
	schema := sampleSchema()
	table := BuildParamTable(schema)

	args := map[string]any{"path": "x", "note": nil}
	if err := table.Bind(schema, args); err != nil {
		t.Fatalf("Expected nil for nullable param to bind, got %v", err)
	}
}

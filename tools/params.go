package tools

import (
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ParamKind is the coarse argument type used for dispatch-time binding.
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindInteger ParamKind = "integer"
	KindNumber  ParamKind = "number"
	KindBoolean ParamKind = "boolean"
	KindArray   ParamKind = "array"
	KindObject  ParamKind = "object"
	KindAny     ParamKind = "any"
)

// ParamSpec describes one named tool parameter.
type ParamSpec struct {
	Kind     ParamKind
	Required bool
	Nullable bool
	// Item is the element kind for array parameters.
	Item ParamKind
}

// ParamTable is an explicit typed parameter table (name to spec), built once
// from a tool's input schema and consumed by the generic dispatcher. It
// replaces any runtime synthesis of native call signatures.
type ParamTable map[string]ParamSpec

// BuildParamTable synthesizes the parameter table from a JSON schema.
func BuildParamTable(schema *jsonschema.Schema) ParamTable {
	table := make(ParamTable)
	if schema == nil {
		return table
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for name, prop := range schema.Properties {
		if prop == nil {
			table[name] = ParamSpec{Kind: KindAny, Required: required[name]}
			continue
		}
		kind, nullable := schemaKind(prop)
		spec := ParamSpec{
			Kind:     kind,
			Required: required[name],
			Nullable: nullable,
		}
		if kind == KindArray {
			spec.Item = KindAny
			if prop.Items != nil {
				spec.Item, _ = schemaKind(prop.Items)
			}
		}
		table[name] = spec
	}

	return table
}

// schemaKind maps a schema's declared type(s) to a ParamKind, reporting
// whether null is also permitted.
func schemaKind(s *jsonschema.Schema) (ParamKind, bool) {
	types := s.Types
	if len(types) == 0 && s.Type != "" {
		types = []string{s.Type}
	}

	kind := KindAny
	nullable := false
	for _, t := range types {
		switch t {
		case "null":
			nullable = true
		case "string", "integer", "number", "boolean", "array", "object":
			kind = ParamKind(t)
		}
	}
	return kind, nullable
}

// Bind validates the arguments by name against the table and the full
// schema. Failures come back as ToolError values so callers surface them to
// the model as strings.
func (p ParamTable) Bind(schema *jsonschema.Schema, args map[string]any) error {
	for name, spec := range p {
		value, present := args[name]
		if !present {
			if spec.Required {
				return NewToolError("missing required parameter %q", name)
			}
			continue
		}
		if value == nil {
			if spec.Nullable || !spec.Required {
				continue
			}
			return NewToolError("parameter %q must not be null", name)
		}
		if !kindMatches(spec.Kind, value) {
			return NewToolError("parameter %q must be of type %s", name, spec.Kind)
		}
	}

	for name := range args {
		if _, known := p[name]; !known {
			return NewToolError("unknown parameter %q", name)
		}
	}

	return validateAgainstSchema(schema, args)
}

// kindMatches reports whether a decoded JSON value is acceptable for a kind.
// JSON numbers decode as float64, so integers are accepted when whole.
func kindMatches(kind ParamKind, value any) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindBoolean:
		_, ok := value.(bool)
		return ok
	case KindNumber:
		return isJSONNumber(value)
	case KindInteger:
		switch n := value.(type) {
		case float64:
			return n == float64(int64(n))
		case int, int64, json.Number:
			return true
		}
		return false
	case KindArray:
		_, ok := value.([]any)
		return ok
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func isJSONNumber(value any) bool {
	switch value.(type) {
	case float64, int, int64, json.Number:
		return true
	}
	return false
}

// validateAgainstSchema runs full JSON-schema validation over the bound
// arguments, catching constraints the coarse table cannot express (enums,
// nested object shapes).
func validateAgainstSchema(schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(raw),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		// Schemas from remote providers are not always valid drafts. A
		// schema we cannot compile must not block the call.
		return nil
	}

	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return NewToolError("invalid arguments: %s", strings.Join(details, "; "))
	}
	return nil
}

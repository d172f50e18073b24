package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	invopop "github.com/invopop/jsonschema"
)

// ToolFunc executes a tool call and returns the text result shown to the model.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool describes a callable action exposed to the agent: a name, a
// description, a JSON schema for its arguments and the function that runs it.
// Tools are immutable once constructed and owned by a single capability.
type Tool struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Func        ToolFunc

	// UpdatesSystemPrompt marks tools whose successful execution changes
	// what the next system prompt render should contain.
	UpdatesSystemPrompt bool

	params ParamTable
}

// New constructs a tool from an explicit schema.
func New(name, description string, schema *jsonschema.Schema, fn ToolFunc) Tool {
	if schema == nil {
		schema = &jsonschema.Schema{Type: "object"}
	}
	if schema.Title == "" {
		schema.Title = name
	}
	if schema.Description == "" {
		schema.Description = description
	}
	return Tool{
		Name:        name,
		Description: description,
		Schema:      schema,
		Func:        fn,
		params:      BuildParamTable(schema),
	}
}

// WithPromptUpdate returns a copy of the tool flagged as updating the
// system prompt after a successful call.
func (t Tool) WithPromptUpdate() Tool {
	t.UpdatesSystemPrompt = true
	return t
}

// FromStruct builds a tool whose input schema is reflected from the args
// struct type. Fields carry their schema via invopop struct tags; fields
// without omitempty are required.
func FromStruct[T any](name, description string, fn func(ctx context.Context, args T) (string, error)) Tool {
	reflector := invopop.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
	}
	var zero T
	reflected := reflector.Reflect(&zero)

	schema, err := convertReflectedSchema(reflected)
	if err != nil {
		// A struct that cannot reflect to a schema is a programming error.
		panic(fmt.Sprintf("tools: reflecting schema for %s: %v", name, err))
	}
	schema.Title = name
	schema.Description = description

	wrapped := func(ctx context.Context, raw map[string]any) (string, error) {
		data, err := json.Marshal(raw)
		if err != nil {
			return "", NewToolError("invalid arguments: %v", err)
		}
		var args T
		if err := json.Unmarshal(data, &args); err != nil {
			return "", NewToolError("invalid arguments: %v", err)
		}
		return fn(ctx, args)
	}

	return New(name, description, schema, wrapped)
}

// convertReflectedSchema moves an invopop schema into the jsonschema-go
// representation used everywhere else, via its JSON form.
func convertReflectedSchema(in *invopop.Schema) (*jsonschema.Schema, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	out := &jsonschema.Schema{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	if out.Type == "" {
		out.Type = "object"
	}
	return out, nil
}

// Call validates the arguments against the tool's parameter table and
// schema, then executes the tool function.
func (t Tool) Call(ctx context.Context, args map[string]any) (string, error) {
	if args == nil {
		args = make(map[string]any)
	}
	if err := t.Params().Bind(t.Schema, args); err != nil {
		return "", err
	}
	return t.Func(ctx, args)
}

// Params returns the typed parameter table synthesized from the schema.
func (t Tool) Params() ParamTable {
	if t.params == nil {
		t.params = BuildParamTable(t.Schema)
	}
	return t.params
}

package llm

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/adeptdev/adept/messages"
)

func TestConvertToolToOllama(t *testing.T) {
	schema := &jsonschema.Schema{
		Title:       "search",
		Description: "search things",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: "what to search"},
			"limit": {Type: "integer"},
		},
		Required: []string{"query"},
	}

	tool := convertToolToOllama(schema)
	if tool.Function.Name != "search" {
		t.Errorf("Expected name search, got %q", tool.Function.Name)
	}
	if tool.Function.Parameters.Properties.Len() != 2 {
		t.Fatalf("Expected 2 properties, got %d", tool.Function.Parameters.Properties.Len())
	}
	prop, ok := tool.Function.Parameters.Properties.Get("query")
	if !ok {
		t.Fatal("Expected query property")
	}
	if len(prop.Type) != 1 || prop.Type[0] != "string" {
		t.Errorf("Expected string property type, got %v", prop.Type)
	}
	if len(tool.Function.Parameters.Required) != 1 || tool.Function.Parameters.Required[0] != "query" {
		t.Errorf("Expected query required, got %v", tool.Function.Parameters.Required)
	}
}

func TestMessagesToOllamaToolCallArguments(t *testing.T) {
	msgs := []messages.ChatMessage{{
		Role: messages.MessageRoleAssistant,
		ToolCalls: []messages.ChatMessageToolCall{
			{ID: "call_0", Name: "search", Arguments: `{"query":"go"}`},
		},
	}}

	out := messagesToOllama(msgs)
	if len(out) != 1 || len(out[0].ToolCalls) != 1 {
		t.Fatalf("Expected 1 message with 1 tool call, got %v", out)
	}

	args := out[0].ToolCalls[0].Function.Arguments
	value, ok := args.Get("query")
	if !ok || value != "go" {
		t.Errorf("Expected query argument to carry over, got %v (present=%v)", value, ok)
	}
}

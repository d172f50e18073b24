package tools

import (
	"context"
	"strings"
	"testing"
)

type greetArgs struct {
	Name  string `json:"name" jsonschema:"required" jsonschema_description:"Who to greet"`
	Loud  bool   `json:"loud,omitempty"`
	Times int    `json:"times,omitempty"`
}

func TestFromStructSchema(t *testing.T) {
	tool := FromStruct[greetArgs]("greet", "Greet someone", func(ctx context.Context, args greetArgs) (string, error) {
		return "hi " + args.Name, nil
	})

	if tool.Name != "greet" {
		t.Errorf("Expected name greet, got %s", tool.Name)
	}
	if tool.Schema == nil {
		t.Fatal("Expected schema to be reflected")
	}
	if tool.Schema.Title != "greet" {
		t.Errorf("Expected schema title greet, got %s", tool.Schema.Title)
	}
	if _, ok := tool.Schema.Properties["name"]; !ok {
		t.Error("Expected name property in schema")
	}

	params := tool.Params()
	if !params["name"].Required {
		t.Error("Expected name to be required")
	}
	if params["loud"].Required {
		t.Error("Expected loud to be optional")
	}
	if params["loud"].Kind != KindBoolean {
		t.Errorf("Expected loud to be boolean, got %s", params["loud"].Kind)
	}
	if params["times"].Kind != KindInteger {
		t.Errorf("Expected times to be integer, got %s", params["times"].Kind)
	}
}

func TestCallDecodesArgs(t *testing.T) {
	tool := FromStruct[greetArgs]("greet", "Greet someone", func(ctx context.Context, args greetArgs) (string, error) {
		if args.Loud {
			return "HI " + strings.ToUpper(args.Name), nil
		}
		return "hi " + args.Name, nil
	})

	result, err := tool.Call(context.Background(), map[string]any{"name": "ada", "loud": true})
	if err != nil {
		t.Fatalf("Expected call to succeed, got %v", err)
	}
	if result != "HI ADA" {
		t.Errorf("Expected HI ADA, got %s", result)
	}
}

func TestCallRejectsInvalidArgs(t *testing.T) {
	tool := FromStruct[greetArgs]("greet", "Greet someone", func(ctx context.Context, args greetArgs) (string, error) {
		return "", nil
	})

	_, err := tool.Call(context.Background(), map[string]any{"loud": true})
	if err == nil {
		t.Fatal("Expected error for missing required argument")
	}
	if _, ok := err.(*ToolError); !ok {
		t.Errorf("Expected ToolError, got %T", err)
	}
}

func TestWithPromptUpdate(t *testing.T) {
	tool := New("noop", "does nothing", nil, func(ctx context.Context, args map[string]any) (string, error) {
		return "", nil
	})

	if tool.UpdatesSystemPrompt {
		t.Error("Expected flag off by default")
	}

	flagged := tool.WithPromptUpdate()
	if !flagged.UpdatesSystemPrompt {
		t.Error("Expected flag set on copy")
	}
	if tool.UpdatesSystemPrompt {
		t.Error("Expected original unchanged")
	}
}

func TestNewDefaultsSchema(t *testing.T) {
	tool := New("bare", "bare tool", nil, func(ctx context.Context, args map[string]any) (string, error) {
		return "ok", nil
	})

	if tool.Schema == nil || tool.Schema.Type != "object" {
		t.Fatal("Expected default object schema")
	}
	if tool.Schema.Title != "bare" {
		t.Errorf("Expected title bare, got %s", tool.Schema.Title)
	}

	result, err := tool.Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no-arg call to succeed, got %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected ok, got %s", result)
	}
}

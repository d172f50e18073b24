package tools

import (
	"context"
	"testing"
)

func namedTool(name string) Tool {
	return New(name, "test tool", nil, func(ctx context.Context, args map[string]any) (string, error) {
		return name, nil
	})
}

func TestRegistryOrder(t *testing.T) {
	registry, err := NewRegistry([]Tool{namedTool("b"), namedTool("a"), namedTool("c")})
	if err != nil {
		t.Fatalf("Expected registry creation to succeed, got %v", err)
	}

	all := registry.All()
	if len(all) != 3 {
		t.Fatalf("Expected 3 tools, got %d", len(all))
	}
	for i, want := range []string{"b", "a", "c"} {
		if all[i].Name != want {
			t.Errorf("Expected position %d to be %s, got %s", i, want, all[i].Name)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Tool{namedTool("x"), namedTool("x")})
	if err == nil {
		t.Fatal("Expected error for duplicate tool name")
	}
}

func TestRegistryGet(t *testing.T) {
	registry, err := NewRegistry([]Tool{namedTool("lookup")})
	if err != nil {
		t.Fatal(err)
	}

	tool, ok := registry.Get("lookup")
	if !ok {
		t.Fatal("Expected tool to exist")
	}
	if tool.Name != "lookup" {
		t.Errorf("Expected lookup, got %s", tool.Name)
	}

	if _, ok := registry.Get("absent"); ok {
		t.Error("Expected absent tool to not exist")
	}
}

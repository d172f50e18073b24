package capabilities

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adeptdev/adept/mcpconn"
)

func TestMCPSetupDeferredWhileDisabled(t *testing.T) {
	m := NewStdioMCP("web", "web tools", false, "definitely-not-a-real-command", nil, nil, nil)

	// Disabled capabilities must not pay for a connection at session start.
	if err := m.Setup(context.Background()); err != nil {
		t.Fatalf("Expected deferred setup to succeed, got %v", err)
	}
	if m.session.Active() {
		t.Error("Expected no connection for disabled capability")
	}
	if !m.started {
		t.Error("Expected started flag set")
	}

	if err := m.Teardown(context.Background()); err != nil {
		t.Errorf("Expected teardown of unconnected session to succeed, got %v", err)
	}
}

func TestMCPContextDataWithoutResources(t *testing.T) {
	m := NewStdioMCP("web", "web tools", true, "echo", nil, nil, nil)

	data, err := m.ContextData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if data != "" {
		t.Errorf("Expected empty context data with resources off, got %q", data)
	}

	withResources := NewStdioMCP("web", "web tools", true, "echo", nil, nil, nil, WithResources())
	data, err = withResources.ContextData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if data != "" {
		t.Errorf("Expected empty context data while disconnected, got %q", data)
	}
}

func TestMCPOptions(t *testing.T) {
	m := NewHTTPMCP("docs", "documentation", false, "https://docs.example.com/mcp", map[string]string{"Authorization": "Bearer x"}, nil,
		WithInstructions("Use the docs tools."),
		WithExamples(`search(query="x")`),
	)

	if m.Name() != "docs" {
		t.Errorf("Expected name docs, got %s", m.Name())
	}
	if len(m.Instructions()) != 1 || m.Instructions()[0] != "Use the docs tools." {
		t.Errorf("Expected instructions to be set, got %v", m.Instructions())
	}
	if len(m.Examples()) != 1 {
		t.Errorf("Expected examples to be set, got %v", m.Examples())
	}
}

func TestGitHubIntegrationPreset(t *testing.T) {
	gh := NewGitHubIntegration(false)

	if gh.Name() != "github_integration" {
		t.Errorf("Expected github_integration, got %s", gh.Name())
	}
	if gh.Enabled() {
		t.Error("Expected preset to respect the enabled flag")
	}
	if len(gh.Instructions()) == 0 {
		t.Error("Expected preset instructions")
	}

	enabled := NewGitHubIntegration(true)
	if !enabled.Enabled() {
		t.Error("Expected enabled preset")
	}
}

func TestMCPToolsRequireConnection(t *testing.T) {
	m := NewStdioMCP("web", "web tools", true, "echo", nil, nil, nil)

	if _, err := m.Tools(context.Background()); err == nil {
		t.Fatal("Expected error listing tools before setup")
	}
}

func TestRemoteSchemaConversion(t *testing.T) {
	// The protocol carries input schemas as untyped JSON.
	rt := &mcp.Tool{
		Name: "search",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
			"required": []any{"query"},
		},
	}

	schema := remoteSchema(rt)
	if schema == nil {
		t.Fatal("Expected converted schema")
	}
	if schema.Type != "object" {
		t.Errorf("Expected object schema, got %q", schema.Type)
	}
	if prop := schema.Properties["query"]; prop == nil || prop.Type != "string" {
		t.Errorf("Expected string query property, got %v", prop)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Errorf("Expected query required, got %v", schema.Required)
	}

	if remoteSchema(&mcp.Tool{Name: "bare"}) != nil {
		t.Error("Expected nil for absent schema")
	}
	if remoteSchema(&mcp.Tool{Name: "bad", InputSchema: func() {}}) != nil {
		t.Error("Expected nil for unmarshalable schema")
	}
}

func TestServerConfigRoundTrip(t *testing.T) {
	m := NewMCP("custom", "custom server", false, mcpconn.ServerConfig{
		URL:       "https://x.test/mcp",
		Transport: "streamable",
	}, []string{"only_this"})

	if m.Description() != "custom server" {
		t.Errorf("Expected description to carry, got %s", m.Description())
	}
}

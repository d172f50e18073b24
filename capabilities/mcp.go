package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/adeptdev/adept/mcpconn"
	"github.com/adeptdev/adept/tools"
)

// MCP exposes the tools and resources of one MCP server as a capability.
// The connection is established during Setup when the capability starts
// enabled, or lazily on Enable when it is switched on mid-session.
type MCP struct {
	Base
	session *mcpconn.Session

	// started records that the surrounding builder session has begun, so a
	// later Enable knows it must connect on its own.
	started bool

	includeResources bool
	resourceFilter   func(*mcp.Resource) bool
}

// MCPOption configures an MCP capability.
type MCPOption func(*MCP)

// WithResources includes the server's resources in the capability's prompt
// context.
func WithResources() MCPOption {
	return func(m *MCP) { m.includeResources = true }
}

// WithResourceFilter includes only resources accepted by the predicate.
// Implies WithResources.
func WithResourceFilter(filter func(*mcp.Resource) bool) MCPOption {
	return func(m *MCP) {
		m.includeResources = true
		m.resourceFilter = filter
	}
}

// WithInstructions sets the prompt instructions for the capability.
func WithInstructions(instructions ...string) MCPOption {
	return func(m *MCP) { m.SetInstructions(instructions) }
}

// WithExamples sets the prompt examples for the capability.
func WithExamples(examples ...string) MCPOption {
	return func(m *MCP) { m.SetExamples(examples) }
}

// NewMCP creates a capability backed by the given MCP server. allowed, when
// non-nil, restricts the exposed remote tools to the named subset.
func NewMCP(name, description string, enabled bool, config mcpconn.ServerConfig, allowed []string, opts ...MCPOption) *MCP {
	var sessionOpts []mcpconn.Option
	if allowed != nil {
		sessionOpts = append(sessionOpts, mcpconn.WithAllowedTools(allowed))
	}
	m := &MCP{
		Base:    NewBase(name, description, enabled),
		session: mcpconn.New(config, sessionOpts...),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewStdioMCP creates a capability for a subprocess MCP server.
func NewStdioMCP(name, description string, enabled bool, command string, args []string, env map[string]string, allowed []string, opts ...MCPOption) *MCP {
	return NewMCP(name, description, enabled, mcpconn.ServerConfig{
		Command: command,
		Args:    args,
		Env:     env,
	}, allowed, opts...)
}

// NewHTTPMCP creates a capability for a remote MCP server reached over
// streamable HTTP.
func NewHTTPMCP(name, description string, enabled bool, url string, headers map[string]string, allowed []string, opts ...MCPOption) *MCP {
	return NewMCP(name, description, enabled, mcpconn.ServerConfig{
		URL:       url,
		Transport: "streamable",
		Headers:   headers,
	}, allowed, opts...)
}

// Setup connects to the server when the capability starts enabled. Disabled
// capabilities defer the connection until Enable to avoid paying for servers
// the conversation may never switch on.
func (m *MCP) Setup(ctx context.Context) error {
	m.started = true
	if !m.Enabled() {
		return nil
	}
	return m.session.Setup(ctx)
}

// Enable switches the capability on, connecting to the server first when the
// session has begun without one.
func (m *MCP) Enable(ctx context.Context) error {
	if m.started && !m.session.Active() {
		if err := m.session.Setup(ctx); err != nil {
			return err
		}
	}
	return m.Base.Enable(ctx)
}

// Teardown closes the server connection if one was established.
func (m *MCP) Teardown(ctx context.Context) error {
	if !m.session.Active() {
		return nil
	}
	return m.session.Teardown(ctx)
}

// Tools adapts the remote tool list into local tool descriptors. Each
// descriptor dispatches back through the session, so remote errors surface
// as in-conversation text rather than Go errors.
func (m *MCP) Tools(ctx context.Context) ([]tools.Tool, error) {
	remote, err := m.session.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("capability %s: %w", m.Name(), err)
	}

	adapted := make([]tools.Tool, 0, len(remote))
	for _, rt := range remote {
		name := rt.Name
		adapted = append(adapted, tools.New(name, rt.Description, remoteSchema(rt),
			func(ctx context.Context, args map[string]any) (string, error) {
				return m.session.CallTool(ctx, name, args)
			}))
	}
	return adapted, nil
}

// remoteSchema converts a remote tool's input schema, which the protocol
// carries as an untyped JSON value, into a local schema. Unconvertible or
// absent schemas come back as a bare object schema so the tool stays usable.
func remoteSchema(rt *mcp.Tool) *jsonschema.Schema {
	if rt.InputSchema == nil {
		return nil
	}
	raw, err := json.Marshal(rt.InputSchema)
	if err != nil {
		return nil
	}
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, schema); err != nil {
		return nil
	}
	return schema
}

// ContextData renders the included resources for the system prompt. Returns
// empty when resource inclusion is off or the server reports none.
func (m *MCP) ContextData(ctx context.Context) (string, error) {
	if !m.includeResources || !m.session.Active() {
		return "", nil
	}

	metas, err := m.session.ListResources(ctx)
	if err != nil {
		return "", fmt.Errorf("capability %s: %w", m.Name(), err)
	}

	var b strings.Builder
	for _, meta := range metas {
		if m.resourceFilter != nil && !m.resourceFilter(meta) {
			continue
		}
		segments, err := m.session.ReadResource(ctx, meta.URI)
		if err != nil {
			zap.S().Warnw("mcp_resource_read_failed", "capability", m.Name(), "uri", meta.URI, "error", err)
			continue
		}
		if b.Len() == 0 {
			b.WriteString("Resources:\n")
		}
		fmt.Fprintf(&b, "## %s (%s)\n%s\n", meta.Name, meta.URI, strings.Join(segments, "\n"))
	}
	return b.String(), nil
}

// githubAllowedTools is the read-only subset of the reference GitHub server
// exposed by the preset.
var githubAllowedTools = []string{"search_repositories", "read_file", "search_code"}

// NewGitHubIntegration creates the GitHub preset: the reference GitHub MCP
// server run via npx, restricted to read-only search tools. The token is
// taken from GITHUB_ACCESS_TOKEN.
func NewGitHubIntegration(enabled bool) *MCP {
	env := map[string]string{}
	if token := os.Getenv("GITHUB_ACCESS_TOKEN"); token != "" {
		env["GITHUB_PERSONAL_ACCESS_TOKEN"] = token
	}
	return NewStdioMCP(
		"github_integration",
		"Search GitHub repositories and read files from them",
		enabled,
		"npx",
		[]string{"-y", "@modelcontextprotocol/server-github"},
		env,
		githubAllowedTools,
		WithInstructions(
			"Use the GitHub tools to find repositories and inspect their code.",
			"Prefer search_code for locating symbols and read_file for full files.",
		),
		WithExamples(
			`search_repositories(query="language:go mcp client")`,
			`search_code(q="func NewClient repo:modelcontextprotocol/go-sdk")`,
		),
	)
}

package mcpconn

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// ErrSessionNotInitialized is returned when tools or resources are requested
// before Setup has completed.
var ErrSessionNotInitialized = errors.New("mcp session not initialised: Setup must complete first")

// Session owns the lifecycle of a connection to one MCP server: it opens the
// transport, performs the handshake, caches the remote tool and resource
// lists, and invalidates those caches when the server pushes a list-changed
// notification.
//
// All operations except the notification handlers must run on the task that
// owns the session. Notifications arrive on the protocol receive goroutine,
// so invalidation is communicated through one-slot channels that accessors
// drain before trusting their cache.
type Session struct {
	config  ServerConfig
	allowed []string // nil means all tools permitted

	client  *mcp.Client
	session *mcp.ClientSession

	tools     []*mcp.Tool
	resources []*mcp.Resource

	toolsStale     chan struct{}
	resourcesStale chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithAllowedTools restricts the tool list to the named tools. The filter is
// applied after fetching the full remote list.
func WithAllowedTools(names []string) Option {
	return func(s *Session) {
		s.allowed = slices.Clone(names)
	}
}

// New creates an unconnected session for the given server.
func New(config ServerConfig, opts ...Option) *Session {
	s := &Session{
		config:         config,
		toolsStale:     make(chan struct{}, 1),
		resourcesStale: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Setup opens the transport, connects and performs the protocol handshake.
// It must complete before any other operation; calling it again without an
// intervening Teardown is undefined.
func (s *Session) Setup(ctx context.Context) error {
	transport, err := s.buildTransport()
	if err != nil {
		return err
	}
	return s.connect(ctx, transport)
}

// connect performs the handshake over an already built transport.
func (s *Session) connect(ctx context.Context, transport mcp.Transport) error {
	s.client = mcp.NewClient(&mcp.Implementation{
		Name:    "adept",
		Version: "1.0.0",
	}, &mcp.ClientOptions{
		ToolListChangedHandler: func(context.Context, *mcp.ToolListChangedRequest) {
			s.OnToolListChanged()
		},
		ResourceListChangedHandler: func(context.Context, *mcp.ResourceListChangedRequest) {
			s.OnResourceListChanged()
		},
	})

	session, err := s.client.Connect(ctx, transport, nil)
	if err != nil {
		s.client = nil
		return fmt.Errorf("failed to connect to MCP server: %w", err)
	}
	s.session = session
	return nil
}

// buildTransport selects the transport from the server config.
func (s *Session) buildTransport() (mcp.Transport, error) {
	switch s.config.Transport {
	case "sse":
		if s.config.URL == "" {
			return nil, fmt.Errorf("SSE transport requires a URL")
		}
		zap.S().Debugw("mcp_connect", "transport", "sse", "url", s.config.URL)
		return &mcp.SSEClientTransport{
			Endpoint:   s.config.URL,
			HTTPClient: httpClientFor(s.config),
		}, nil

	case "streamable":
		if s.config.URL == "" {
			return nil, fmt.Errorf("streamable transport requires a URL")
		}
		zap.S().Debugw("mcp_connect", "transport", "streamable", "url", s.config.URL)
		return &mcp.StreamableClientTransport{
			Endpoint:   s.config.URL,
			HTTPClient: httpClientFor(s.config),
		}, nil

	case "stdio", "":
		if s.config.Command == "" {
			// A URL without an explicit transport means streamable HTTP.
			if s.config.URL != "" {
				zap.S().Debugw("mcp_connect", "transport", "streamable", "url", s.config.URL)
				return &mcp.StreamableClientTransport{
					Endpoint:   s.config.URL,
					HTTPClient: httpClientFor(s.config),
				}, nil
			}
			return nil, fmt.Errorf("stdio transport requires a command")
		}

		cmd := exec.Command(s.config.Command, s.config.Args...)
		if s.config.Dir != "" {
			cmd.Dir = s.config.Dir
		}
		if len(s.config.Env) > 0 {
			cmd.Env = os.Environ()
			for key, value := range s.config.Env {
				cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
			}
		}
		cmd.Stderr = log.Writer()

		zap.S().Debugw("mcp_connect", "transport", "stdio", "command", s.config.Command, "args", s.config.Args)
		return &mcp.CommandTransport{Command: cmd}, nil

	default:
		return nil, fmt.Errorf("unknown transport type: %s (supported: stdio, sse, streamable)", s.config.Transport)
	}
}

// Active reports whether Setup has completed without a Teardown.
func (s *Session) Active() bool {
	return s.session != nil
}

// Teardown closes the session and its transport. Both are released even when
// the server connection already failed, so a broken provider never leaks the
// subprocess or socket.
func (s *Session) Teardown(_ context.Context) error {
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	s.client = nil
	s.tools = nil
	s.resources = nil
	return err
}

// OnToolListChanged marks the tool cache stale so the next ListTools call
// queries the server again.
func (s *Session) OnToolListChanged() {
	select {
	case s.toolsStale <- struct{}{}:
	default:
	}
}

// OnResourceListChanged marks the resource cache stale.
func (s *Session) OnResourceListChanged() {
	select {
	case s.resourcesStale <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// ListTools returns the remote tool list, filtered to the allow-list when
// one was configured. The result is cached until the server pushes a
// tool-list-changed notification.
func (s *Session) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	if s.session == nil {
		return nil, ErrSessionNotInitialized
	}

	if drain(s.toolsStale) {
		s.tools = nil
	}
	if s.tools != nil {
		return s.tools, nil
	}

	result, err := s.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error listing tools: %w", err)
	}

	filtered := make([]*mcp.Tool, 0, len(result.Tools))
	for _, tool := range result.Tools {
		if s.allowed != nil && !slices.Contains(s.allowed, tool.Name) {
			continue
		}
		filtered = append(filtered, tool)
	}

	s.tools = filtered
	return s.tools, nil
}

// CallTool invokes the named remote tool. Provider-reported failures are
// returned as a displayable string prefixed with "Error calling tool: ",
// never as a Go error, so the calling agent can react in-conversation.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if s.session == nil {
		return "", ErrSessionNotInitialized
	}
	if args == nil {
		args = make(map[string]any)
	}

	zap.S().Debugw("mcp_call_tool", "name", name, "args", args)

	result, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("MCP tool call failed: %w", err)
	}

	content := joinTextContent(result.Content)
	if result.IsError {
		return "Error calling tool: " + content, nil
	}
	return content, nil
}

// joinTextContent concatenates the text segments of a tool result. Only text
// content is supported.
func joinTextContent(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		if text, ok := item.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ListResources returns the remote resource metadata list, cached like the
// tool list and invalidated by resource-list-changed notifications.
func (s *Session) ListResources(ctx context.Context) ([]*mcp.Resource, error) {
	if s.session == nil {
		return nil, ErrSessionNotInitialized
	}

	if drain(s.resourcesStale) {
		s.resources = nil
	}
	if s.resources != nil {
		return s.resources, nil
	}

	result, err := s.session.ListResources(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error listing resources: %w", err)
	}

	s.resources = result.Resources
	return s.resources, nil
}

// ReadResource fetches a resource's content, one string per segment. Binary
// segments are represented in their base64 text form.
func (s *Session) ReadResource(ctx context.Context, uri string) ([]string, error) {
	if s.session == nil {
		return nil, ErrSessionNotInitialized
	}

	result, err := s.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return nil, fmt.Errorf("error reading resource %s: %w", uri, err)
	}

	segments := make([]string, 0, len(result.Contents))
	for _, content := range result.Contents {
		if content.Text != "" || len(content.Blob) == 0 {
			segments = append(segments, content.Text)
		} else {
			segments = append(segments, base64.StdEncoding.EncodeToString(content.Blob))
		}
	}
	return segments, nil
}

package mcpconn

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig describes how to reach one MCP server: either a subprocess
// spawned over stdio, or a remote HTTP endpoint.
type ServerConfig struct {
	// Subprocess transport fields
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Dir     string            `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Remote transport fields
	URL       string            `json:"url,omitempty" yaml:"url,omitempty"`
	Transport string            `json:"transport,omitempty" yaml:"transport,omitempty"` // "stdio" | "sse" | "streamable"
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Timeout   string            `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "30s"
}

// ServersFile is the on-disk YAML format holding multiple named servers.
type ServersFile struct {
	Servers map[string]ServerConfig `yaml:"servers"`
}

// LoadServersFile parses a YAML config file of named server definitions.
func LoadServersFile(path string) (map[string]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server config %s: %w", path, err)
	}

	var file ServersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse server config %s: %w", path, err)
	}
	if len(file.Servers) == 0 {
		return nil, fmt.Errorf("no servers defined in %s", path)
	}
	return file.Servers, nil
}

// timeout returns the configured connection timeout, defaulting to 30s.
func (c ServerConfig) timeout() time.Duration {
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			return d
		}
	}
	return 30 * time.Second
}

// headerRoundTripper injects static headers into every request.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return h.base.RoundTrip(req)
}

func httpClientFor(c ServerConfig) *http.Client {
	return &http.Client{
		Timeout: c.timeout(),
		Transport: &headerRoundTripper{
			base:    http.DefaultTransport,
			headers: c.Headers,
		},
	}
}

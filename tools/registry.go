package tools

import (
	"fmt"

	"go.uber.org/zap"
)

// Registry indexes tools by name and enforces name uniqueness across the
// active tool list.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry from a list of tools. Duplicate names are
// rejected because the model addresses tools purely by name.
func NewRegistry(list []Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, tool := range list {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("duplicate tool name %q", tool.Name)
	}
	zap.S().Debugw("tool_registered", "name", tool.Name)
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

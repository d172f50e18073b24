package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adeptdev/adept/capabilities"
	"github.com/adeptdev/adept/tools"
)

// EnableCapabilityToolName is the meta-tool the agent calls to switch on a
// disabled capability mid-conversation.
const EnableCapabilityToolName = "enable_capability"

// AgentTool pairs a tool with a liveness check. The check is consulted at
// dispatch time so a capability disabled after the tool list was built does
// not execute.
type AgentTool struct {
	tools.Tool

	// EnabledFn reports whether the owning capability is currently on.
	// Nil means always on.
	EnabledFn func() bool
}

// Available reports whether the tool may be offered and dispatched now.
func (t AgentTool) Available() bool {
	return t.EnabledFn == nil || t.EnabledFn()
}

// Builder composes a set of capabilities into the prompt and tool surface of
// one agent. Capabilities keep their registration order everywhere: prompt
// sections, tool listing and lifecycle.
type Builder struct {
	role    string
	caps    []capabilities.Capability
	started bool
}

// New creates a builder for the given role text and capabilities.
// Registration order is preserved.
func New(role string, caps ...capabilities.Capability) (*Builder, error) {
	seen := make(map[string]bool, len(caps))
	for _, c := range caps {
		if seen[c.Name()] {
			return nil, fmt.Errorf("duplicate capability name %q", c.Name())
		}
		seen[c.Name()] = true
	}
	return &Builder{role: role, caps: caps}, nil
}

// Capabilities returns the registered capabilities in order.
func (b *Builder) Capabilities() []capabilities.Capability {
	return b.caps
}

// Started reports whether Setup has completed without a Teardown.
func (b *Builder) Started() bool { return b.started }

// Setup runs each capability's Setup in registration order. On failure the
// capabilities that already completed are torn down in reverse before the
// error is returned, so a half-started builder never leaks sessions.
func (b *Builder) Setup(ctx context.Context) error {
	for i, cap := range b.caps {
		if err := cap.Setup(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if terr := b.caps[j].Teardown(ctx); terr != nil {
					zap.S().Warnw("capability_teardown_failed", "capability", b.caps[j].Name(), "error", terr)
				}
			}
			return fmt.Errorf("setting up capability %s: %w", cap.Name(), err)
		}
		zap.S().Debugw("capability_setup", "capability", cap.Name(), "enabled", cap.Enabled())
	}
	b.started = true
	return nil
}

// Teardown runs each capability's Teardown in reverse registration order.
// Every capability is released even when earlier ones fail; the errors are
// joined.
func (b *Builder) Teardown(ctx context.Context) error {
	var errs []error
	for i := len(b.caps) - 1; i >= 0; i-- {
		if err := b.caps[i].Teardown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tearing down capability %s: %w", b.caps[i].Name(), err))
		}
	}
	b.started = false
	return errors.Join(errs...)
}

// Run executes fn inside a Setup/Teardown pair.
func (b *Builder) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Setup(ctx); err != nil {
		return err
	}
	defer func() {
		if err := b.Teardown(ctx); err != nil {
			zap.S().Warnw("builder_teardown_failed", "error", err)
		}
	}()
	return fn(ctx)
}

// Tools gathers the tool lists of all enabled capabilities concurrently,
// preserving registration order in the result, and appends the
// enable_capability meta-tool when any capability is disabled.
func (b *Builder) Tools(ctx context.Context) ([]AgentTool, error) {
	perCap := make([][]AgentTool, len(b.caps))

	g, gctx := errgroup.WithContext(ctx)
	for i, cap := range b.caps {
		if !cap.Enabled() {
			continue
		}
		g.Go(func() error {
			capTools, err := cap.Tools(gctx)
			if err != nil {
				return err
			}
			entry := make([]AgentTool, 0, len(capTools))
			for _, t := range capTools {
				entry = append(entry, AgentTool{Tool: t, EnabledFn: cap.Enabled})
			}
			perCap[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []AgentTool
	for _, entry := range perCap {
		all = append(all, entry...)
	}

	if disabled := b.disabledNames(); len(disabled) > 0 {
		all = append(all, AgentTool{Tool: b.enableCapabilityTool(disabled)})
	}

	// The model addresses tools purely by name, so collisions across
	// capabilities are a configuration error.
	flat := make([]tools.Tool, 0, len(all))
	for _, t := range all {
		flat = append(flat, t.Tool)
	}
	if _, err := tools.NewRegistry(flat); err != nil {
		return nil, err
	}

	return all, nil
}

func (b *Builder) disabledNames() []string {
	var names []string
	for _, cap := range b.caps {
		if !cap.Enabled() {
			names = append(names, cap.Name())
		}
	}
	return names
}

// enableCapabilityTool builds the meta-tool, naming the currently disabled
// capabilities in the argument description. Rebuilt on every Tools call so
// the listed names track state changes. The name is matched
// case-insensitively, so the schema carries no enum constraint.
func (b *Builder) enableCapabilityTool(disabled []string) tools.Tool {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {
				Type: "string",
				Description: fmt.Sprintf(
					"Name of the capability to enable (case-insensitive). One of: %s",
					strings.Join(disabled, ", ")),
			},
		},
		Required: []string{"name"},
	}

	return tools.New(
		EnableCapabilityToolName,
		"Enable a currently disabled capability, making its tools available",
		schema,
		b.enableCapability,
	).WithPromptUpdate()
}

// enableCapability flips the named capability on. Matching is
// case-insensitive; unknown names come back as a tool error the agent can
// read and react to.
func (b *Builder) enableCapability(ctx context.Context, args map[string]any) (string, error) {
	name, _ := args["name"].(string)
	for _, cap := range b.caps {
		if !strings.EqualFold(cap.Name(), name) {
			continue
		}
		if cap.Enabled() {
			return fmt.Sprintf("Capability %s is already enabled", cap.Name()), nil
		}
		if err := cap.Enable(ctx); err != nil {
			return "", tools.NewToolError("enabling capability %s: %v", cap.Name(), err)
		}
		zap.S().Infow("capability_enabled", "capability", cap.Name())
		return fmt.Sprintf("Enabled capability %s", cap.Name()), nil
	}
	return "", tools.NewToolError("Capability %s not found", name)
}

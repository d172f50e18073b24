package capabilities

import (
	"context"

	"github.com/adeptdev/adept/tools"
)

// Capability is a named, toggleable bundle of tools and prompt text exposed
// to the agent. The enabled flag governs whether its tools appear in the
// active tool list, not whether they exist.
type Capability interface {
	Name() string
	Description() string

	Enabled() bool
	// Enable flips the capability on. Remote capabilities may use this to
	// lazily establish their session when the surrounding builder is
	// already running.
	Enable(ctx context.Context) error
	Disable()

	// Tools returns the capability's tool descriptors. Remote variants
	// require Setup to have completed.
	Tools(ctx context.Context) ([]tools.Tool, error)

	// Instructions and Examples feed the system prompt template.
	Instructions() []string
	Examples() []string

	// ContextData returns capability-specific context for the system
	// prompt, empty by default.
	ContextData(ctx context.Context) (string, error)

	// Setup is called once when the containing builder session begins;
	// Teardown once when it ends.
	Setup(ctx context.Context) error
	Teardown(ctx context.Context) error
}

// Base carries the common identity and flag state shared by all capability
// implementations, with no-op lifecycle defaults.
type Base struct {
	name         string
	description  string
	enabled      bool
	instructions []string
	examples     []string
}

// NewBase constructs the shared capability state.
func NewBase(name, description string, enabled bool) Base {
	return Base{name: name, description: description, enabled: enabled}
}

func (b *Base) Name() string        { return b.name }
func (b *Base) Description() string { return b.description }
func (b *Base) Enabled() bool       { return b.enabled }

func (b *Base) Enable(context.Context) error {
	b.enabled = true
	return nil
}

func (b *Base) Disable() {
	b.enabled = false
}

func (b *Base) Instructions() []string { return b.instructions }
func (b *Base) Examples() []string     { return b.examples }

// SetInstructions replaces the capability's prompt instructions.
func (b *Base) SetInstructions(instructions []string) {
	b.instructions = instructions
}

// SetExamples replaces the capability's prompt examples.
func (b *Base) SetExamples(examples []string) {
	b.examples = examples
}

func (b *Base) ContextData(context.Context) (string, error) { return "", nil }

func (b *Base) Setup(context.Context) error    { return nil }
func (b *Base) Teardown(context.Context) error { return nil }

package capabilities

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/adeptdev/adept/internal/console"
	"github.com/adeptdev/adept/tools"
)

// maxOutputLines caps command output fed back to the model.
const maxOutputLines = 100

// destructivePattern flags commands that should not run without operator
// approval. A coarse net on purpose: false positives cost one keystroke.
var destructivePattern = regexp.MustCompile(`(^|[;&|]\s*)(sudo\s|rm\s|rmdir\s|mv\s|dd\s|mkfs|truncate\s|chmod\s|chown\s|kill\s|killall\s|shutdown|reboot)|>\s*\S|git\s+push\s+.*--force`)

// Terminal lets the agent run shell commands in the working directory.
// Destructive-looking commands require interactive operator confirmation.
type Terminal struct {
	Base
	dir        string
	console    *console.Console
	confirmAll bool
}

// TerminalOption configures a Terminal capability.
type TerminalOption func(*Terminal)

// WithConfirmAll requires confirmation for every command, not just
// destructive-looking ones.
func WithConfirmAll() TerminalOption {
	return func(t *Terminal) { t.confirmAll = true }
}

// WithConsole overrides the confirmation console, used by tests.
func WithConsole(c *console.Console) TerminalOption {
	return func(t *Terminal) { t.console = c }
}

// NewTerminal creates a terminal capability running commands in dir.
func NewTerminal(dir string, enabled bool, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		Base:    NewBase("terminal", "Run shell commands in the working directory", enabled),
		dir:     dir,
		console: console.Default(),
	}
	t.SetInstructions([]string{
		"Use run_bash_command to execute shell commands.",
		"Commands run in the working directory with a non-interactive shell.",
		"Long output is truncated; pipe through head or grep to narrow it.",
	})
	t.SetExamples([]string{
		`run_bash_command(command="ls -la")`,
		`run_bash_command(command="grep -rn 'NewClient' ./...")`,
	})
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type runCommandArgs struct {
	Command string `json:"command" jsonschema:"required" jsonschema_description:"Shell command to execute"`
}

// Tools returns the terminal tool set.
func (t *Terminal) Tools(ctx context.Context) ([]tools.Tool, error) {
	return []tools.Tool{
		tools.FromStruct[runCommandArgs](
			"run_bash_command",
			"Run a bash command and return its combined output",
			t.runCommand,
		),
	}, nil
}

func (t *Terminal) runCommand(ctx context.Context, args runCommandArgs) (string, error) {
	command := strings.TrimSpace(args.Command)
	if command == "" {
		return "", tools.NewToolError("command must not be empty")
	}

	if t.confirmAll || destructivePattern.MatchString(command) {
		t.console.Warn("Agent wants to run: %s", command)
		if !t.console.Confirm("Allow?") {
			return "Command cancelled by user", nil
		}
	}

	t.console.Action("Running: %s", command)
	zap.S().Debugw("run_bash_command", "command", command, "dir", t.dir)

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = t.dir
	output, err := cmd.CombinedOutput()

	text := truncateLines(string(output), maxOutputLines)
	if err != nil {
		if text == "" {
			return "", tools.NewToolError("command failed: %v", err)
		}
		return text + "\n(command failed: " + err.Error() + ")", nil
	}
	if text == "" {
		return "(no output)", nil
	}
	return text, nil
}

func truncateLines(s string, max int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[:max], "\n") + "\n... (output truncated)"
}

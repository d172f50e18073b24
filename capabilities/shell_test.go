package capabilities

import (
	"context"
	"strings"
	"testing"

	"github.com/adeptdev/adept/internal/console"
)

func newTestTerminal(t *testing.T, input string) *Terminal {
	t.Helper()
	var out strings.Builder
	con := console.New(&out, strings.NewReader(input))
	return NewTerminal(t.TempDir(), true, WithConsole(con))
}

func TestRunCommand(t *testing.T) {
	term := newTestTerminal(t, "")
	run := findTool(t, term, "run_bash_command")

	result, err := run.Call(context.Background(), map[string]any{"command": "echo hello"})
	if err != nil {
		t.Fatalf("Expected command to succeed, got %v", err)
	}
	if result != "hello" {
		t.Errorf("Expected hello, got %q", result)
	}
}

func TestRunCommandEmptyOutput(t *testing.T) {
	term := newTestTerminal(t, "")
	run := findTool(t, term, "run_bash_command")

	result, err := run.Call(context.Background(), map[string]any{"command": "true"})
	if err != nil {
		t.Fatal(err)
	}
	if result != "(no output)" {
		t.Errorf("Expected placeholder for empty output, got %q", result)
	}
}

func TestRunCommandTruncation(t *testing.T) {
	term := newTestTerminal(t, "")
	run := findTool(t, term, "run_bash_command")

	result, err := run.Call(context.Background(), map[string]any{"command": "seq 1 200"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(result, "... (output truncated)") {
		t.Error("Expected truncation marker")
	}
	lines := strings.Split(result, "\n")
	if len(lines) != maxOutputLines+1 {
		t.Errorf("Expected %d lines plus marker, got %d", maxOutputLines, len(lines))
	}
}

func TestDestructiveCommandDeclined(t *testing.T) {
	term := newTestTerminal(t, "n\n")
	run := findTool(t, term, "run_bash_command")

	result, err := run.Call(context.Background(), map[string]any{"command": "rm -rf subdir"})
	if err != nil {
		t.Fatalf("Expected decline to not be an error, got %v", err)
	}
	if result != "Command cancelled by user" {
		t.Errorf("Expected cancellation string, got %q", result)
	}
}

func TestDestructiveCommandConfirmed(t *testing.T) {
	term := newTestTerminal(t, "y\n")
	run := findTool(t, term, "run_bash_command")

	result, err := run.Call(context.Background(), map[string]any{"command": "rm -f nothing.txt; echo done"})
	if err != nil {
		t.Fatalf("Expected confirmed command to run, got %v", err)
	}
	if result != "done" {
		t.Errorf("Expected done, got %q", result)
	}
}

func TestConfirmAll(t *testing.T) {
	var out strings.Builder
	con := console.New(&out, strings.NewReader("n\n"))
	term := NewTerminal(t.TempDir(), true, WithConsole(con), WithConfirmAll())
	run := findTool(t, term, "run_bash_command")

	result, err := run.Call(context.Background(), map[string]any{"command": "echo hi"})
	if err != nil {
		t.Fatal(err)
	}
	if result != "Command cancelled by user" {
		t.Errorf("Expected harmless command to need confirmation, got %q", result)
	}
}

func TestDestructivePattern(t *testing.T) {
	destructive := []string{
		"rm -rf /tmp/x",
		"sudo apt install foo",
		"echo hi > file.txt",
		"git push origin main --force",
		"ls; rm file",
	}
	for _, cmd := range destructive {
		if !destructivePattern.MatchString(cmd) {
			t.Errorf("Expected %q to be flagged destructive", cmd)
		}
	}

	safe := []string{
		"ls -la",
		"grep -rn pattern .",
		"git status",
		"echo hello",
	}
	for _, cmd := range safe {
		if destructivePattern.MatchString(cmd) {
			t.Errorf("Expected %q to be safe", cmd)
		}
	}
}

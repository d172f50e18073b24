package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// Console writes styled status lines for tool activity and asks for
// interactive confirmations. All agent-visible output goes elsewhere; this
// is purely operator feedback.
type Console struct {
	out     io.Writer
	in      *bufio.Reader
	profile termenv.Profile
}

var std = New(os.Stdout, os.Stdin)

// Default returns the process-wide console bound to stdout/stdin.
func Default() *Console { return std }

// New creates a console writing to out and reading confirmations from in.
func New(out io.Writer, in io.Reader) *Console {
	return &Console{
		out:     out,
		in:      bufio.NewReader(in),
		profile: termenv.ColorProfile(),
	}
}

// Action prints a highlighted activity line, e.g. "Reading file: x".
func (c *Console) Action(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	fmt.Fprintln(c.out, termenv.String(text).Foreground(c.profile.Color("12")).Bold().String())
}

// Dim prints a de-emphasized line, used for command output echo.
func (c *Console) Dim(text string) {
	fmt.Fprintln(c.out, termenv.String(text).Faint().String())
}

// Warn prints a warning line.
func (c *Console) Warn(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	fmt.Fprintln(c.out, termenv.String(text).Foreground(c.profile.Color("9")).String())
}

// Print writes an unstyled line.
func (c *Console) Print(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Confirm asks a yes/no question and returns the answer; anything other
// than y/yes counts as no.
func (c *Console) Confirm(prompt string) bool {
	fmt.Fprint(c.out, termenv.String(prompt+" [y/N] ").Bold().String())
	line, err := c.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

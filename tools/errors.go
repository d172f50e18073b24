package tools

import "fmt"

// ToolError signals a recoverable tool failure whose message should be
// returned to the model as the tool result rather than terminating the run.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

// NewToolError builds a ToolError with a formatted message.
func NewToolError(format string, args ...any) *ToolError {
	return &ToolError{Message: fmt.Sprintf(format, args...)}
}

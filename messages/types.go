package messages

// StopReason indicates why the model stopped generating
type StopReason string

const (
	// StopReasonEndTurn indicates normal completion
	StopReasonEndTurn StopReason = "end_turn"
	// StopReasonToolUse indicates the model wants to use tools
	StopReasonToolUse StopReason = "tool_use"
	// StopReasonMaxTokens indicates the response was truncated due to token limit
	StopReasonMaxTokens StopReason = "max_tokens"
	// StopReasonContentFilter indicates the response was blocked by safety/policy
	StopReasonContentFilter StopReason = "content_filter"
	// StopReasonError indicates malformed output or other error
	StopReasonError StopReason = "error"
)

// Standard role constants
const (
	MessageRoleSystem    = "system"
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleTool      = "tool"
)

// ChatMessage represents a provider-agnostic chat message
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ChatMessageToolCall
	ToolCallID string     // For tool response messages
	ToolName   string     // Name of the tool that produced a tool response
	StopReason StopReason // Why the model stopped generating (final message only)
}

// ChatMessageToolCall represents a tool call within a message
type ChatMessageToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON string of arguments
}

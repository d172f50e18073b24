package llm

import (
	"context"
	"time"

	"github.com/adeptdev/adept/messages"
	"github.com/adeptdev/adept/tools"
)

// LLM is the contract for one model provider: a single blocking completion
// call returning the assistant message, including any tool calls.
type LLM interface {
	ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error)
}

// CompletionRequest carries everything one completion needs.
type CompletionRequest struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	Model       string
	MaxTokens   int
	Messages    []messages.ChatMessage
	Tools       []tools.Tool
}

// timeoutOrDefault returns the configured request timeout, defaulting to 5m.
func (r *CompletionRequest) timeoutOrDefault() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 5 * time.Minute
}

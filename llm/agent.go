package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adeptdev/adept/composer"
	"github.com/adeptdev/adept/messages"
	"github.com/adeptdev/adept/tools"
)

// Agent drives the conversation loop between a model and a capability
// builder: it renders the system prompt, offers the enabled tools, executes
// the model's tool calls and feeds the results back until the model answers
// without calling tools.
type Agent struct {
	client  LLM
	builder *composer.Builder
	config  AgentConfig
}

// AgentConfig configures loop behavior.
type AgentConfig struct {
	MaxIterations int           // model calls before giving up (default 10)
	ToolTimeout   time.Duration // per-tool execution timeout (0 = none)
}

// AgentCallbacks are optional hooks for observing a run.
type AgentCallbacks struct {
	OnContent   func(content string)
	OnToolStart func(call messages.ChatMessageToolCall)
	OnToolEnd   func(call messages.ChatMessageToolCall, result string, duration time.Duration)
}

// AgentResponse is the outcome of one Run.
type AgentResponse struct {
	Message        *messages.ChatMessage  // final assistant message
	AllMessages    []messages.ChatMessage // everything generated during the run
	IterationCount int
}

// ErrMaxIterations is returned when the model keeps calling tools past the
// configured iteration limit.
var ErrMaxIterations = errors.New("maximum iterations reached without final response")

// NewAgent creates an agent over the given provider client and builder.
func NewAgent(client LLM, builder *composer.Builder, config AgentConfig) *Agent {
	if config.MaxIterations <= 0 {
		config.MaxIterations = 10
	}
	return &Agent{client: client, builder: builder, config: config}
}

// Run executes one conversational exchange. req.Messages holds the history
// without a system message; the agent maintains the system prompt itself,
// re-rendering it whenever a tool flagged as prompt-updating succeeds.
func (a *Agent) Run(ctx context.Context, req *CompletionRequest, cb *AgentCallbacks) (*AgentResponse, error) {
	msgs := make([]messages.ChatMessage, 0, len(req.Messages)+1)
	msgs = append(msgs, messages.ChatMessage{Role: messages.MessageRoleSystem})
	for _, m := range req.Messages {
		if m.Role != messages.MessageRoleSystem {
			msgs = append(msgs, m)
		}
	}

	var allGenerated []messages.ChatMessage
	promptStale := true

	for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if promptStale {
			prompt, err := a.builder.SystemPrompt(ctx)
			if err != nil {
				return nil, err
			}
			msgs[0].Content = prompt
			promptStale = false
		}

		agentTools, err := a.builder.Tools(ctx)
		if err != nil {
			return nil, err
		}
		active := make([]composer.AgentTool, 0, len(agentTools))
		offered := make([]tools.Tool, 0, len(agentTools))
		for _, t := range agentTools {
			if t.Available() {
				active = append(active, t)
				offered = append(offered, t.Tool)
			}
		}

		iterReq := *req
		iterReq.Messages = msgs
		iterReq.Tools = offered

		// iterReq is a copy so provider routing may rewrite its Model
		// field without affecting the next iteration.
		response, err := a.client.ChatCompletion(ctx, &iterReq)
		if err != nil {
			return nil, err
		}

		msgs = append(msgs, *response)
		allGenerated = append(allGenerated, *response)

		if cb != nil && cb.OnContent != nil && response.Content != "" {
			cb.OnContent(response.Content)
		}

		if len(response.ToolCalls) == 0 {
			return &AgentResponse{
				Message:        response,
				AllMessages:    allGenerated,
				IterationCount: iteration + 1,
			}, nil
		}

		for _, call := range response.ToolCalls {
			result, updatedPrompt := a.executeToolCall(ctx, active, call, cb)
			if updatedPrompt {
				promptStale = true
			}
			toolMsg := messages.ChatMessage{
				Role:       messages.MessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			}
			msgs = append(msgs, toolMsg)
			allGenerated = append(allGenerated, toolMsg)
		}
	}

	return nil, ErrMaxIterations
}

// executeToolCall dispatches one call against the active tool set. Failures
// come back as displayable text so the model can recover in-conversation;
// the second result reports whether a prompt-updating tool succeeded.
func (a *Agent) executeToolCall(ctx context.Context, active []composer.AgentTool, call messages.ChatMessageToolCall, cb *AgentCallbacks) (string, bool) {
	var tool *composer.AgentTool
	for i := range active {
		if active[i].Name == call.Name {
			tool = &active[i]
			break
		}
	}
	if tool == nil || !tool.Available() {
		return fmt.Sprintf("Error: tool %s is not available", call.Name), false
	}

	var args map[string]any
	if trimmed := call.Arguments; trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return fmt.Sprintf("Error: parsing arguments: %v", err), false
		}
	}
	// Models sometimes echo the placeholder advertised for no-arg tools.
	delete(args, noArgsPlaceholder)

	if cb != nil && cb.OnToolStart != nil {
		cb.OnToolStart(call)
	}

	execCtx := ctx
	if a.config.ToolTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, a.config.ToolTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := tool.Call(execCtx, args)
	duration := time.Since(start)

	if err != nil {
		zap.S().Debugw("tool_call_failed", "tool", call.Name, "error", err, "duration", duration)
		var toolErr *tools.ToolError
		if errors.As(err, &toolErr) {
			result = "Error: " + toolErr.Message
		} else {
			result = "Error: " + err.Error()
		}
	}
	zap.S().Debugw("tool_call_completed", "tool", call.Name, "duration", duration)

	if cb != nil && cb.OnToolEnd != nil {
		cb.OnToolEnd(call, result, duration)
	}

	return result, err == nil && tool.UpdatesSystemPrompt
}

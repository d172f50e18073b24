package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/adeptdev/adept/messages"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	if apiKey == "" {
		zap.S().Debugw("anthropic_missing_api_key")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// ChatCompletion sends the request and maps the response message back.
func (a *AnthropicClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	timeout, cancel := context.WithTimeout(ctx, req.timeoutOrDefault())
	defer cancel()

	params := a.buildRequestParams(req)
	zap.S().Debugw("anthropic_completion_started", "model", req.Model)

	resp, err := a.client.Messages.New(timeout, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic completion: %w", err)
	}

	msg := &messages.ChatMessage{
		Role:       messages.MessageRoleAssistant,
		StopReason: mapAnthropicStopReason(resp.StopReason),
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, messages.ChatMessageToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	return msg, nil
}

func (a *AnthropicClient) buildRequestParams(req *CompletionRequest) anthropic.MessageNewParams {
	anthropicMessages, systemPrompt := messagesToAnthropic(req.Messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages:    anthropicMessages,
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		}
	}

	if len(req.Tools) > 0 {
		anthropicTools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			anthropicTools = append(anthropicTools, convertToolToAnthropic(tool.Schema))
		}
		params.Tools = anthropicTools
	}

	return params
}

func mapAnthropicStopReason(sr anthropic.StopReason) messages.StopReason {
	switch sr {
	case "end_turn", "stop_sequence":
		return messages.StopReasonEndTurn
	case "tool_use":
		return messages.StopReasonToolUse
	case "max_tokens":
		return messages.StopReasonMaxTokens
	case "refusal":
		return messages.StopReasonContentFilter
	default:
		return messages.StopReasonEndTurn
	}
}

// messagesToAnthropic converts the history, splitting out the system prompt
// which Anthropic carries as a top-level parameter.
func messagesToAnthropic(msgs []messages.ChatMessage) ([]anthropic.MessageParam, string) {
	var converted []anthropic.MessageParam
	systemPrompt := ""

	for _, msg := range msgs {
		switch msg.Role {
		case messages.MessageRoleSystem:
			systemPrompt = msg.Content

		case messages.MessageRoleUser:
			if strings.TrimSpace(msg.Content) != "" {
				converted = append(converted, anthropic.NewUserMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}

		case messages.MessageRoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if strings.TrimSpace(msg.Content) != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any
				if argStr := strings.TrimSpace(tc.Arguments); argStr != "" {
					var tmp any
					if err := json.Unmarshal([]byte(argStr), &tmp); err == nil {
						input = tmp
					}
				} else {
					// The input field is required even for no-arg tools.
					input = make(map[string]any)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				converted = append(converted, anthropic.NewAssistantMessage(blocks...))
			}

		case messages.MessageRoleTool:
			if strings.TrimSpace(msg.ToolCallID) != "" {
				converted = append(converted, anthropic.NewUserMessage(
					anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
				))
			} else if strings.TrimSpace(msg.Content) != "" {
				converted = append(converted, anthropic.NewUserMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}
		}
	}

	return converted, systemPrompt
}

// convertToolToAnthropic maps a tool schema to the Messages API tool format.
func convertToolToAnthropic(schema *jsonschema.Schema) anthropic.ToolUnionParam {
	properties := make(map[string]any)
	if schema != nil && schema.Properties != nil {
		for k, v := range schema.Properties {
			if v != nil {
				properties[k] = schemaToMap(v)
			}
		}
	}

	name := ""
	description := ""
	var required []string
	if schema != nil {
		name = schema.Title
		description = schema.Description
		if len(schema.Required) > 0 {
			required = schema.Required
		}
	}

	inputSchema := anthropic.ToolInputSchemaParam{
		Type:       "object",
		Properties: properties,
	}
	if len(required) > 0 {
		inputSchema.Required = required
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        name,
			Description: anthropic.String(description),
			InputSchema: inputSchema,
		},
	}
}

// schemaToMap recursively converts a schema subtree to a plain map.
func schemaToMap(schema *jsonschema.Schema) map[string]any {
	if schema == nil {
		return nil
	}

	propMap := make(map[string]any)
	if schema.Type != "" {
		propMap["type"] = schema.Type
	} else {
		propMap["type"] = "string"
	}
	if schema.Description != "" {
		propMap["description"] = schema.Description
	}

	switch schema.Type {
	case "array":
		if schema.Items != nil {
			propMap["items"] = schemaToMap(schema.Items)
		} else {
			propMap["items"] = map[string]any{"type": "string"}
		}
	case "object":
		props := make(map[string]any)
		for name, prop := range schema.Properties {
			if prop != nil {
				props[name] = schemaToMap(prop)
			}
		}
		propMap["properties"] = props
		if len(schema.Required) > 0 {
			propMap["required"] = schema.Required
		}
	}

	if len(schema.Enum) > 0 {
		propMap["enum"] = schema.Enum
	}

	return propMap
}

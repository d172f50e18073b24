package llm

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	ai "github.com/sashabaranov/go-openai"
	oaischema "github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/adeptdev/adept/messages"
)

// OpenAIClient talks to the OpenAI chat completions API, or any compatible
// endpoint via BaseURL.
type OpenAIClient struct {
	client *ai.Client
}

func NewOpenAIClient(apiKey string, baseURL string) *OpenAIClient {
	cfg := ai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: ai.NewClientWithConfig(cfg)}
}

// ChatCompletion sends the request and maps the first choice back.
func (o *OpenAIClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	timeout, cancel := context.WithTimeout(ctx, req.timeoutOrDefault())
	defer cancel()

	ccr := ai.ChatCompletionRequest{
		Model:               req.Model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         req.Temperature,
		Messages:            messagesToOpenAI(req.Messages),
	}

	if len(req.Tools) > 0 {
		openaiTools := make([]ai.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			openaiTools = append(openaiTools, convertToolToOpenAI(tool.Schema))
		}
		ccr.Tools = openaiTools
	}

	zap.S().Debugw("openai_completion_started", "model", req.Model)

	resp, err := o.client.CreateChatCompletion(timeout, ccr)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion: empty response")
	}

	choice := resp.Choices[0]
	msg := &messages.ChatMessage{
		Role:       messages.MessageRoleAssistant,
		Content:    choice.Message.Content,
		StopReason: mapOpenAIFinishReason(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, messages.ChatMessageToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg, nil
}

func mapOpenAIFinishReason(fr ai.FinishReason) messages.StopReason {
	switch fr {
	case ai.FinishReasonToolCalls, ai.FinishReasonFunctionCall:
		return messages.StopReasonToolUse
	case ai.FinishReasonLength:
		return messages.StopReasonMaxTokens
	case ai.FinishReasonContentFilter:
		return messages.StopReasonContentFilter
	default:
		return messages.StopReasonEndTurn
	}
}

func messagesToOpenAI(msgs []messages.ChatMessage) []ai.ChatCompletionMessage {
	result := make([]ai.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		m := ai.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, ai.ToolCall{
				ID:   tc.ID,
				Type: ai.ToolTypeFunction,
				Function: ai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		result[i] = m
	}
	return result
}

// noArgsPlaceholder is the synthetic property advertised for tools whose
// schema declares no parameters.
const noArgsPlaceholder = "__noargs"

func convertToolToOpenAI(schema *jsonschema.Schema) ai.Tool {
	props := make(map[string]oaischema.Definition)
	if schema != nil && schema.Properties != nil {
		for k, v := range schema.Properties {
			if v != nil {
				props[k] = schemaToOpenAIDefinition(v)
			}
		}
	}

	name := ""
	description := ""
	var required []string
	if schema != nil {
		name = schema.Title
		description = schema.Description
		required = schema.Required
	}

	// The API rejects tools whose parameters lack a properties field; the
	// go-openai schema type omits empty maps, so no-arg tools get a benign
	// placeholder. The agent strips it again before dispatch.
	if len(props) == 0 {
		props[noArgsPlaceholder] = oaischema.Definition{
			Type:        oaischema.String,
			Description: "No arguments expected; value ignored.",
		}
	}

	return ai.Tool{
		Type: ai.ToolTypeFunction,
		Function: &ai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters: oaischema.Definition{
				Type:                 oaischema.Object,
				Properties:           props,
				Required:             required,
				AdditionalProperties: false,
			},
		},
	}
}

func schemaToOpenAIDefinition(schema *jsonschema.Schema) oaischema.Definition {
	if schema == nil {
		return oaischema.Definition{}
	}

	def := oaischema.Definition{
		Type:        oaischema.DataType(schema.Type),
		Description: schema.Description,
	}

	switch schema.Type {
	case "array":
		if schema.Items != nil {
			items := schemaToOpenAIDefinition(schema.Items)
			def.Items = &items
		}
	case "object":
		if schema.Properties != nil {
			props := make(map[string]oaischema.Definition)
			for name, prop := range schema.Properties {
				if prop != nil {
					props[name] = schemaToOpenAIDefinition(prop)
				}
			}
			def.Properties = props
		}
		if len(schema.Required) > 0 {
			def.Required = schema.Required
		}
	}

	if len(schema.Enum) > 0 {
		enumStrs := make([]string, 0, len(schema.Enum))
		for _, e := range schema.Enum {
			if s, ok := e.(string); ok {
				enumStrs = append(enumStrs, s)
			}
		}
		if len(enumStrs) > 0 {
			def.Enum = enumStrs
		}
	}

	return def
}

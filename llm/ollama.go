package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	ollamaapi "github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/adeptdev/adept/messages"
)

// OllamaClient talks to a local or remote Ollama server.
type OllamaClient struct {
	client *ollamaapi.Client
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}

func NewOllamaClient(baseURL string, apiKey string) *OllamaClient {
	u, err := url.Parse(baseURL)
	if err != nil {
		zap.S().Warnw("ollama_invalid_url", "url", baseURL, "error", err)
		u, _ = url.Parse("http://localhost:11434")
	}

	httpClient := http.DefaultClient
	if apiKey != "" {
		httpClient = &http.Client{
			Transport: &bearerTransport{token: apiKey, base: http.DefaultTransport},
		}
	}

	return &OllamaClient{client: ollamaapi.NewClient(u, httpClient)}
}

// ChatCompletion runs a non-streamed chat request and collects the response.
func (o *OllamaClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	timeout, cancel := context.WithTimeout(ctx, req.timeoutOrDefault())
	defer cancel()

	stream := false
	chatReq := &ollamaapi.ChatRequest{
		Model:    req.Model,
		Messages: messagesToOllama(req.Messages),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	if len(req.Tools) > 0 {
		ollamaTools := make([]ollamaapi.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			ollamaTools = append(ollamaTools, convertToolToOllama(tool.Schema))
		}
		chatReq.Tools = ollamaTools
	}

	zap.S().Debugw("ollama_completion_started", "model", req.Model)

	msg := &messages.ChatMessage{Role: messages.MessageRoleAssistant}
	err := o.client.Chat(timeout, chatReq, func(resp ollamaapi.ChatResponse) error {
		msg.Content += resp.Message.Content
		for _, tc := range resp.Message.ToolCalls {
			args, _ := json.Marshal(tc.Function.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, messages.ChatMessageToolCall{
				ID:        fmt.Sprintf("call_%d", len(msg.ToolCalls)),
				Name:      tc.Function.Name,
				Arguments: string(args),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama completion: %w", err)
	}

	if len(msg.ToolCalls) > 0 {
		msg.StopReason = messages.StopReasonToolUse
	} else {
		msg.StopReason = messages.StopReasonEndTurn
	}
	return msg, nil
}

func messagesToOllama(msgs []messages.ChatMessage) []ollamaapi.Message {
	var result []ollamaapi.Message
	for _, msg := range msgs {
		m := ollamaapi.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
		if msg.Role == messages.MessageRoleAssistant && len(msg.ToolCalls) > 0 {
			for _, tc := range msg.ToolCalls {
				var args ollamaapi.ToolCallFunctionArguments
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err == nil {
					m.ToolCalls = append(m.ToolCalls, ollamaapi.ToolCall{
						Function: ollamaapi.ToolCallFunction{
							Name:      tc.Name,
							Arguments: args,
						},
					})
				}
			}
		}
		result = append(result, m)
	}
	return result
}

func convertToolToOllama(schema *jsonschema.Schema) ollamaapi.Tool {
	name := ""
	description := ""
	typeStr := "object"
	var required []string

	if schema != nil {
		name = schema.Title
		description = schema.Description
		if schema.Type != "" {
			typeStr = schema.Type
		}
		required = schema.Required
	}

	toolFunc := ollamaapi.ToolFunction{
		Name:        name,
		Description: description,
	}
	toolFunc.Parameters.Type = typeStr
	toolFunc.Parameters.Required = required

	props := ollamaapi.NewToolPropertiesMap()
	if schema != nil {
		names := make([]string, 0, len(schema.Properties))
		for k := range schema.Properties {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			if v := schema.Properties[k]; v != nil {
				props.Set(k, schemaToOllamaProperty(v))
			}
		}
	}
	toolFunc.Parameters.Properties = props

	return ollamaapi.Tool{
		Type:     "function",
		Function: toolFunc,
	}
}

func schemaToOllamaProperty(schema *jsonschema.Schema) ollamaapi.ToolProperty {
	if schema == nil {
		return ollamaapi.ToolProperty{Type: ollamaapi.PropertyType{"string"}}
	}

	prop := ollamaapi.ToolProperty{
		Type:        ollamaapi.PropertyType{schema.Type},
		Description: schema.Description,
	}

	if schema.Type == "array" {
		if schema.Items != nil {
			prop.Items = schemaToOllamaProperty(schema.Items)
		} else {
			prop.Items = ollamaapi.ToolProperty{Type: ollamaapi.PropertyType{"string"}}
		}
	}

	if len(schema.Enum) > 0 {
		prop.Enum = schema.Enum
	}

	return prop
}

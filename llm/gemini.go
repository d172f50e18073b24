package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/adeptdev/adept/messages"
)

// GeminiClient talks to the Gemini API. The underlying client is created
// per request because its constructor needs a context.
type GeminiClient struct {
	apiKey string
}

func NewGeminiClient(apiKey string) *GeminiClient {
	if apiKey == "" {
		zap.S().Debugw("gemini_missing_api_key")
	}
	return &GeminiClient{apiKey: apiKey}
}

// ChatCompletion sends the conversation and maps the first candidate back.
func (g *GeminiClient) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	timeout, cancel := context.WithTimeout(ctx, req.timeoutOrDefault())
	defer cancel()

	client, err := genai.NewClient(timeout, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	model.SetMaxOutputTokens(int32(req.MaxTokens))

	history, systemInstruction, _ := messagesToGemini(req.Messages)

	// The last user turn is sent as the message; everything before it is
	// chat history.
	var userParts []genai.Part
	if len(history) > 0 && history[len(history)-1].Role == "user" {
		userParts = history[len(history)-1].Parts
		history = history[:len(history)-1]
	} else {
		userParts = []genai.Part{genai.Text("")}
	}

	if systemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemInstruction)},
		}
	}

	if len(req.Tools) > 0 {
		var decls []*genai.FunctionDeclaration
		for _, tool := range req.Tools {
			decls = append(decls, convertToolToGemini(tool.Schema))
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	chat := model.StartChat()
	chat.History = history

	zap.S().Debugw("gemini_completion_started", "model", req.Model)

	resp, err := chat.SendMessage(timeout, userParts...)
	if err != nil {
		return nil, fmt.Errorf("gemini completion: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini completion: no candidates")
	}

	return messageFromGeminiCandidate(resp.Candidates[0]), nil
}

func messageFromGeminiCandidate(candidate *genai.Candidate) *messages.ChatMessage {
	msg := &messages.ChatMessage{Role: messages.MessageRoleAssistant}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				msg.Content += string(p)
			case genai.FunctionCall:
				args, _ := json.Marshal(p.Args)
				msg.ToolCalls = append(msg.ToolCalls, messages.ChatMessageToolCall{
					ID:        fmt.Sprintf("gemini-%d", len(msg.ToolCalls)),
					Name:      p.Name,
					Arguments: string(args),
				})
			}
		}
	}

	switch {
	case len(msg.ToolCalls) > 0:
		msg.StopReason = messages.StopReasonToolUse
	case candidate.FinishReason == genai.FinishReasonMaxTokens:
		msg.StopReason = messages.StopReasonMaxTokens
	case candidate.FinishReason == genai.FinishReasonSafety:
		msg.StopReason = messages.StopReasonContentFilter
	default:
		msg.StopReason = messages.StopReasonEndTurn
	}
	return msg
}

// messagesToGemini converts the history to Gemini content, splitting out the
// system instruction. Tool results need the originating function name, so
// call IDs are tracked across the pass.
func messagesToGemini(msgs []messages.ChatMessage) ([]*genai.Content, string, map[string]string) {
	var history []*genai.Content
	var systemInstruction string
	callIDToName := make(map[string]string)

	for _, msg := range msgs {
		switch msg.Role {
		case messages.MessageRoleSystem:
			systemInstruction = msg.Content

		case messages.MessageRoleUser:
			if msg.Content != "" {
				history = append(history, genai.NewUserContent(genai.Text(msg.Content)))
			}

		case messages.MessageRoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				if tc.ID != "" {
					callIDToName[tc.ID] = tc.Name
				}
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err == nil {
					parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: args})
				}
			}
			if len(parts) > 0 {
				history = append(history, &genai.Content{Role: "model", Parts: parts})
			}

		case messages.MessageRoleTool:
			funcName := ""
			if msg.ToolCallID != "" {
				funcName = callIDToName[msg.ToolCallID]
			}

			var output any
			if err := json.Unmarshal([]byte(msg.Content), &output); err != nil {
				output = msg.Content
			}
			response, ok := output.(map[string]any)
			if !ok {
				response = map[string]any{"result": output}
			}
			history = append(history, genai.NewUserContent(genai.FunctionResponse{
				Name:     funcName,
				Response: response,
			}))
		}
	}

	return history, systemInstruction, callIDToName
}

func convertToolToGemini(schema *jsonschema.Schema) *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema)
	if schema != nil {
		for name, prop := range schema.Properties {
			if prop != nil {
				props[name] = schemaToGemini(prop)
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

	return &genai.FunctionDeclaration{
		Name:        name,
		Description: description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   required,
		},
	}
}

func schemaToGemini(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{Description: schema.Description}
	for _, value := range schema.Enum {
		out.Enum = append(out.Enum, fmt.Sprint(value))
	}

	switch schema.Type {
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
		if schema.Items != nil {
			out.Items = schemaToGemini(schema.Items)
		}
	case "object":
		out.Type = genai.TypeObject
		if schema.Properties != nil {
			props := make(map[string]*genai.Schema)
			for name, prop := range schema.Properties {
				if prop != nil {
					props[name] = schemaToGemini(prop)
				}
			}
			out.Properties = props
		}
		if len(schema.Required) > 0 {
			out.Required = schema.Required
		}
	default:
		out.Type = genai.TypeString
	}

	return out
}

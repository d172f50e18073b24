package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/adeptdev/adept/messages"
)

// envVarForProvider returns the environment variable holding the provider's
// API key.
func envVarForProvider(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return fmt.Sprintf("%s_API_KEY", strings.ToUpper(provider))
	}
}

// MultiPass routes completion requests to a provider selected by model
// prefix, e.g. "anthropic/claude-sonnet-4-20250514" or "ollama/llama3".
type MultiPass struct {
	apiKeys map[string]string
}

// NewMultiPass creates a router with per-provider API keys. Keys missing
// from the map fall back to the request's APIKey field.
func NewMultiPass(apiKeys map[string]string) *MultiPass {
	return &MultiPass{apiKeys: apiKeys}
}

// ChatCompletion parses the provider prefix, resolves the API key and
// delegates to the matching provider client.
func (m *MultiPass) ChatCompletion(ctx context.Context, req *CompletionRequest) (*messages.ChatMessage, error) {
	parts := strings.SplitN(req.Model, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("model must include provider prefix (e.g. 'anthropic/claude-sonnet-4-20250514'), got %q", req.Model)
	}

	provider := strings.ToLower(parts[0])
	req.Model = parts[1]

	if req.APIKey == "" {
		if key := m.apiKeys[provider]; key != "" {
			req.APIKey = key
		} else if provider != "ollama" {
			return nil, fmt.Errorf("missing API key for provider %q: set %s", provider, envVarForProvider(provider))
		}
	}

	var client LLM
	switch provider {
	case "anthropic":
		client = NewAnthropicClient(req.APIKey)
	case "openai":
		client = NewOpenAIClient(req.APIKey, req.BaseURL)
	case "gemini":
		client = NewGeminiClient(req.APIKey)
	case "ollama":
		baseURL := req.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		client = NewOllamaClient(baseURL, req.APIKey)
	default:
		return nil, fmt.Errorf("unknown provider %q (valid: anthropic, openai, gemini, ollama)", provider)
	}

	return client.ChatCompletion(ctx, req)
}

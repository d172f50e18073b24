package main

import "testing"

func TestQualifiedModel(t *testing.T) {
	cfg := &Config{Framework: "anthropic", Model: "claude-sonnet-4-20250514"}
	if got := cfg.qualifiedModel(); got != "anthropic/claude-sonnet-4-20250514" {
		t.Errorf("Expected framework prefix, got %s", got)
	}

	cfg = &Config{Framework: "anthropic", Model: "openai/gpt-4.1"}
	if got := cfg.qualifiedModel(); got != "openai/gpt-4.1" {
		t.Errorf("Expected explicit prefix to win, got %s", got)
	}

	cfg = &Config{Framework: "ollama", Model: "llama3"}
	if got := cfg.qualifiedModel(); got != "ollama/llama3" {
		t.Errorf("Expected ollama prefix, got %s", got)
	}
}

func TestValidFramework(t *testing.T) {
	for _, f := range []string{"anthropic", "openai", "gemini", "ollama"} {
		if !validFramework(f) {
			t.Errorf("Expected %s to be valid", f)
		}
	}
	if validFramework("cohere") {
		t.Error("Expected cohere to be invalid")
	}
	if validFramework("") {
		t.Error("Expected empty framework to be invalid")
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("ADEPT_MODEL", "gpt-4.1")
	t.Setenv("ADEPT_FRAMEWORK", "openai")
	t.Setenv("ADEPT_MAXTOKENS", "1024")

	cfg := defaultConfig()
	if cfg.Model != "gpt-4.1" {
		t.Errorf("Expected model from environment, got %s", cfg.Model)
	}
	if cfg.Framework != "openai" {
		t.Errorf("Expected framework from environment, got %s", cfg.Framework)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("Expected maxtokens from environment, got %d", cfg.MaxTokens)
	}
	if cfg.MaxIterations != 25 {
		t.Errorf("Expected default iterations, got %d", cfg.MaxIterations)
	}
}

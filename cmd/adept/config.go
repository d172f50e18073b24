package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config is the merged runtime configuration: defaults from the environment,
// overridden by the YAML config file, overridden by command-line flags.
type Config struct {
	Model       string        `yaml:"model"`
	Framework   string        `yaml:"framework"`
	APIKey      string        `yaml:"-"`
	BaseURL     string        `yaml:"baseurl"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxtokens"`
	Timeout     time.Duration `yaml:"timeout"`

	Role          string `yaml:"role"`
	Root          string `yaml:"root"`
	SessionFile   string `yaml:"session"`
	ServersFile   string `yaml:"servers"`
	MaxIterations int    `yaml:"maxiterations"`

	GitHub     bool `yaml:"github"`
	ConfirmAll bool `yaml:"confirmall"`
	Debug      bool `yaml:"debug"`
}

const defaultRole = "You are a software development assistant working in the user's project directory. " +
	"Be direct and concrete. Use the available tools to inspect and change the project rather than guessing."

var frameworks = []string{"anthropic", "openai", "gemini", "ollama"}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func defaultConfig() Config {
	return Config{
		Model:         getEnvOrDefault("ADEPT_MODEL", "claude-sonnet-4-20250514"),
		Framework:     getEnvOrDefault("ADEPT_FRAMEWORK", "anthropic"),
		BaseURL:       getEnvOrDefault("ADEPT_BASEURL", ""),
		Temperature:   getEnvFloat("ADEPT_TEMPERATURE", 1.0),
		MaxTokens:     getEnvInt("ADEPT_MAXTOKENS", 4096),
		Timeout:       2 * time.Minute,
		Role:          getEnvOrDefault("ADEPT_ROLE", defaultRole),
		Root:          ".",
		MaxIterations: 25,
	}
}

// loadConfig builds the effective configuration for this invocation.
func loadConfig(cmd *cli.Command) (*Config, error) {
	cfg := Config{}

	if path := cmd.String("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// Fill fields the file left at zero from the environment defaults.
	if err := mergo.Merge(&cfg, defaultConfig()); err != nil {
		return nil, fmt.Errorf("merging config defaults: %w", err)
	}

	// Explicit flags win over both.
	if cmd.IsSet("model") {
		cfg.Model = cmd.String("model")
	}
	if cmd.IsSet("framework") {
		cfg.Framework = cmd.String("framework")
	}
	if cmd.IsSet("baseurl") {
		cfg.BaseURL = cmd.String("baseurl")
	}
	if cmd.IsSet("temp") {
		cfg.Temperature = cmd.Float64("temp")
	}
	if cmd.IsSet("maxtokens") {
		cfg.MaxTokens = int(cmd.Int("maxtokens"))
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("role") {
		cfg.Role = cmd.String("role")
	}
	if cmd.IsSet("root") {
		cfg.Root = cmd.String("root")
	}
	if cmd.IsSet("session") {
		cfg.SessionFile = cmd.String("session")
	}
	if cmd.IsSet("servers") {
		cfg.ServersFile = cmd.String("servers")
	}
	if cmd.IsSet("iterations") {
		cfg.MaxIterations = int(cmd.Int("iterations"))
	}
	if cmd.IsSet("github") {
		cfg.GitHub = cmd.Bool("github")
	}
	if cmd.IsSet("confirm-all") {
		cfg.ConfirmAll = cmd.Bool("confirm-all")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}

	cfg.APIKey = cmd.String("api-key")

	if !validFramework(cfg.Framework) {
		return nil, fmt.Errorf("unknown framework %q (valid: anthropic, openai, gemini, ollama)", cfg.Framework)
	}

	return &cfg, nil
}

func validFramework(name string) bool {
	for _, f := range frameworks {
		if f == name {
			return true
		}
	}
	return false
}

// qualifiedModel returns the provider-prefixed model string used for
// routing. A model that already carries a prefix is used verbatim.
func (c *Config) qualifiedModel() string {
	for _, f := range frameworks {
		if len(c.Model) > len(f) && c.Model[:len(f)] == f && c.Model[len(f)] == '/' {
			return c.Model
		}
	}
	return c.Framework + "/" + c.Model
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/adeptdev/adept/capabilities"
	"github.com/adeptdev/adept/composer"
	"github.com/adeptdev/adept/internal/console"
	"github.com/adeptdev/adept/internal/log"
	"github.com/adeptdev/adept/llm"
	"github.com/adeptdev/adept/mcpconn"
	"github.com/adeptdev/adept/messages"
	"github.com/adeptdev/adept/sessions"
)

func runCommand(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Init(cfg.Debug)
	defer func() { _ = zap.S().Sync() }()

	session, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	caps, err := buildCapabilities(cfg)
	if err != nil {
		return err
	}

	builder, err := composer.New(cfg.Role, caps...)
	if err != nil {
		return err
	}

	agent := llm.NewAgent(llm.NewMultiPass(providerKeys()), builder, llm.AgentConfig{
		MaxIterations: cfg.MaxIterations,
	})

	return builder.Run(ctx, func(ctx context.Context) error {
		if prompt := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " ")); prompt != "" {
			return exchange(ctx, cfg, agent, session, prompt)
		}
		return interactiveLoop(ctx, cfg, agent, session)
	})
}

func openSession(cfg *Config) (sessions.Session, error) {
	if cfg.SessionFile == "" {
		return sessions.NewMemorySession(), nil
	}
	return sessions.NewFileSession(cfg.SessionFile)
}

// providerKeys collects API keys from the environment for each provider.
func providerKeys() map[string]string {
	return map[string]string{
		"anthropic": os.Getenv("ANTHROPIC_API_KEY"),
		"openai":    os.Getenv("OPENAI_API_KEY"),
		"gemini":    os.Getenv("GEMINI_API_KEY"),
		"ollama":    os.Getenv("OLLAMA_API_KEY"),
	}
}

// buildCapabilities assembles the capability set: filesystem and terminal on
// by default, GitHub off unless requested, plus any configured MCP servers
// starting disabled so the model opts into them.
func buildCapabilities(cfg *Config) ([]capabilities.Capability, error) {
	fs, err := capabilities.NewFileSystem(cfg.Root, true)
	if err != nil {
		return nil, err
	}

	var termOpts []capabilities.TerminalOption
	if cfg.ConfirmAll {
		termOpts = append(termOpts, capabilities.WithConfirmAll())
	}

	caps := []capabilities.Capability{
		fs,
		capabilities.NewTerminal(cfg.Root, true, termOpts...),
		capabilities.NewGitHubIntegration(cfg.GitHub),
	}

	if cfg.ServersFile != "" {
		servers, err := mcpconn.LoadServersFile(cfg.ServersFile)
		if err != nil {
			return nil, err
		}
		for name, server := range servers {
			caps = append(caps, capabilities.NewMCP(
				name,
				fmt.Sprintf("Tools provided by the %s server", name),
				false,
				server,
				nil,
			))
		}
	}

	return caps, nil
}

// exchange runs one prompt through the agent and prints the response.
func exchange(ctx context.Context, cfg *Config, agent *llm.Agent, session sessions.Session, prompt string) error {
	session.AddMessage(messages.ChatMessage{
		Role:    messages.MessageRoleUser,
		Content: prompt,
	})

	req := &llm.CompletionRequest{
		Model:       cfg.qualifiedModel(),
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Temperature: float32(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		Messages:    session.GetHistory(),
	}

	out := console.Default()
	resp, err := agent.Run(ctx, req, &llm.AgentCallbacks{
		OnToolStart: func(call messages.ChatMessageToolCall) {
			out.Action("tool: %s", call.Name)
		},
	})
	if err != nil {
		return err
	}

	session.AddMessages(resp.AllMessages)
	out.Print("%s", resp.Message.Content)
	return nil
}

// interactiveLoop reads prompts until EOF or a quit command. Lines starting
// with "/" are treated as commands rather than prompts.
func interactiveLoop(ctx context.Context, cfg *Config, agent *llm.Agent, session sessions.Session) error {
	out := console.Default()
	out.Dim("Type a prompt, or /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			switch line {
			case "/quit", "/exit", "/q":
				return nil
			default:
				out.Warn("Unknown command: %s", line)
			}
			continue
		}

		if err := exchange(ctx, cfg, agent, session, line); err != nil {
			out.Warn("Error: %v", err)
		}
	}
}

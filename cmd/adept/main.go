package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:      "adept",
		Usage:     "Conversational coding assistant with toggleable capabilities",
		ArgsUsage: "[prompt]",
		Flags:     defineFlags(),
		Action:    runCommand,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defineFlags() []cli.Flag {
	return []cli.Flag{
		// Model configuration
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Model name, optionally provider-prefixed (e.g. anthropic/claude-sonnet-4-20250514)",
		},
		&cli.StringFlag{
			Name:    "framework",
			Aliases: []string{"f"},
			Usage:   "Provider framework: anthropic, openai, gemini or ollama",
		},
		&cli.StringFlag{
			Name:  "api-key",
			Usage: "API key for the selected provider (defaults to the provider's environment variable)",
		},
		&cli.StringFlag{
			Name:  "baseurl",
			Usage: "Base URL for OpenAI-compatible endpoints or Ollama",
		},
		&cli.Float64Flag{
			Name:  "temp",
			Usage: "Sampling temperature",
		},
		&cli.IntFlag{
			Name:  "maxtokens",
			Usage: "Maximum tokens to generate per completion",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-completion request timeout",
		},
		&cli.IntFlag{
			Name:  "iterations",
			Usage: "Maximum model calls per exchange",
		},

		// Agent configuration
		&cli.StringFlag{
			Name:    "role",
			Aliases: []string{"s"},
			Usage:   "Role text heading the system prompt",
		},
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"C"},
			Usage:   "Project directory the assistant works in",
		},
		&cli.StringFlag{
			Name:  "session",
			Usage: "Path to a session file for conversation continuity",
		},
		&cli.StringFlag{
			Name:  "servers",
			Usage: "YAML file of additional MCP servers to expose as capabilities",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML configuration file",
		},
		&cli.BoolFlag{
			Name:  "github",
			Usage: "Start with the GitHub capability enabled",
		},
		&cli.BoolFlag{
			Name:  "confirm-all",
			Usage: "Require confirmation for every shell command",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug logging",
		},
	}
}

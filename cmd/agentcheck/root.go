package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agent-evaluator/internal/di"
	"agent-evaluator/internal/infrastructure/env"
)

var flagLogLevel string

var rootCmd = &cobra.Command{
	Use:   "agentcheck",
	Short: "agentcheck - run evaluation agents locally",
	Long: `agentcheck runs an agent script against a challenge page on this machine,
using the same evaluation loop as the service.

Examples:
  agentcheck validate --agent agent.star
  agentcheck run --agent agent.star --url http://localhost:3000 --success "Welcome"
  agentcheck run --agent agent.star --url http://localhost:3000 --success "Welcome" --headful`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "service log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig reads the service configuration and tunes logging for a terminal.
func loadConfig() (di.Config, error) {
	cfg, err := di.LoadConfig(env.NewEnvService())
	if err != nil {
		return di.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Logger.Format = "console"
	cfg.Logger.Level = flagLogLevel
	cfg.Logger.File = ""
	cfg.Router.AccessLog = false
	return cfg, nil
}

func readAgent(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("--agent is required")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read agent: %w", err)
	}
	return string(src), nil
}

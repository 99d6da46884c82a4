package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agent-evaluator/internal/infrastructure/logger"
	"agent-evaluator/internal/infrastructure/sandbox"
)

var (
	validateFlagAgent       string
	validateFlagObservation string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load an agent script without a browser",
	Long: `Load an agent script and check that it defines agent_logic. With
--observation the agent is called once on the file's contents and the
returned actions are printed.

Examples:
  agentcheck validate --agent agent.star
  agentcheck validate --agent agent.star --observation tree.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readAgent(validateFlagAgent)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Logger, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer log.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		agent, err := sandbox.NewLoader(cfg.Sandbox, log).Load(ctx, src)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s loaded\n", validateFlagAgent)

		if validateFlagObservation == "" {
			return nil
		}
		obs, err := os.ReadFile(validateFlagObservation)
		if err != nil {
			return fmt.Errorf("failed to read observation: %w", err)
		}

		actions, err := agent.Decide(ctx, string(obs))
		if err != nil {
			return err
		}
		if len(actions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "  (no actions)")
		}
		for i, a := range actions {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, a)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFlagAgent, "agent", "", "path to the agent script")
	validateCmd.Flags().StringVar(&validateFlagObservation, "observation", "", "observation text file to call the agent with")
	_ = validateCmd.MarkFlagRequired("agent")
}

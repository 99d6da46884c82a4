package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"agent-evaluator/internal/di"
	"agent-evaluator/internal/domain/entity"
	"agent-evaluator/internal/infrastructure/browser/rod"
	"agent-evaluator/internal/infrastructure/callback"
	"agent-evaluator/internal/infrastructure/console"
)

var (
	runFlagAgent     string
	runFlagURL       string
	runFlagSuccess   string
	runFlagCallback  string
	runFlagMaxSteps  int
	runFlagStepDelay time.Duration
	runFlagHeadful   bool
	runFlagHTML      bool
	runFlagObsLines  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate an agent against a challenge page",
	Long: `Run the evaluation loop once and print the result as JSON.

Examples:
  agentcheck run --agent agent.star --url http://localhost:3000 --success "Welcome"
  agentcheck run --agent agent.star --url http://localhost:3000 --success "Done" --max-steps 5 --step-delay 0
  agentcheck run --agent agent.star --url http://localhost:3000 --success "Done" --callback http://localhost:9000/hook`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readAgent(runFlagAgent)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyRunFlags(cmd, &cfg)

		req := entity.EvaluationRequest{
			EvaluationID:     "local-" + uuid.NewString(),
			AgentSource:      src,
			ChallengeURL:     runFlagURL,
			SuccessCriterion: runFlagSuccess,
			CallbackURL:      runFlagCallback,
		}
		if req.CallbackURL == "" {
			// Validate wants a callback; a local run may go without one.
			req.CallbackURL = "http://localhost/unused"
		}
		if err := req.Validate(); err != nil {
			return err
		}

		container, err := di.NewContainer(cfg, os.Stderr)
		if err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		defer container.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		progress := console.NewProgress(cmd.OutOrStdout(), console.Options{
			MaxObservationLines: runFlagObsLines,
			Highlight:           runFlagSuccess,
		})
		result := container.NewEvaluator(progress).Run(ctx, req)

		if runFlagCallback != "" {
			if err := container.Callback.Send(context.WithoutCancel(ctx), runFlagCallback, result); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "callback: %v\n", err)
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(callback.NewPayload(result)); err != nil {
			return err
		}

		if result.Status == entity.StatusFailed {
			return fmt.Errorf("evaluation failed: %s", result.Error)
		}
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlagAgent, "agent", "", "path to the agent script")
	f.StringVar(&runFlagURL, "url", "", "challenge page URL")
	f.StringVar(&runFlagSuccess, "success", "", "text that marks the challenge as solved")
	f.StringVar(&runFlagCallback, "callback", "", "also POST the result to this URL")
	f.IntVar(&runFlagMaxSteps, "max-steps", 0, "step budget (default from MAX_STEPS)")
	f.DurationVar(&runFlagStepDelay, "step-delay", 0, "pause between steps (default from STEP_DELAY)")
	f.BoolVar(&runFlagHeadful, "headful", false, "show the browser window")
	f.BoolVar(&runFlagHTML, "html", false, "observe cleaned HTML instead of the accessibility tree")
	f.IntVar(&runFlagObsLines, "observation-lines", 40, "observation lines to print per step, 0 for all")

	_ = runCmd.MarkFlagRequired("agent")
	_ = runCmd.MarkFlagRequired("url")
	_ = runCmd.MarkFlagRequired("success")
}

// applyRunFlags overrides only the flags the user actually set.
func applyRunFlags(cmd *cobra.Command, cfg *di.Config) {
	f := cmd.Flags()
	if f.Changed("max-steps") && runFlagMaxSteps > 0 {
		cfg.Evaluator.MaxSteps = runFlagMaxSteps
	}
	if f.Changed("step-delay") {
		cfg.Evaluator.StepDelay = runFlagStepDelay
	}
	if runFlagHeadful {
		cfg.Browser.Headless = false
	}
	if runFlagHTML {
		cfg.Browser.ObservationType = rod.ObservationHTML
	}
}

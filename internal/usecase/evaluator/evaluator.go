// Package evaluator runs one agent against one challenge page: it navigates
// the environment, asks the agent for actions step by step and checks the
// success criterion after every step.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agent-evaluator/internal/application/port/input"
	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"
	"agent-evaluator/internal/usecase/observation"
	"agent-evaluator/internal/usecase/resolver"
)

var _ input.EvaluationRunner = (*Evaluator)(nil)

const (
	defaultMaxSteps = 20
	previewLen      = 200
	renderTimeout   = 10 * time.Second
)

type Config struct {
	MaxSteps  int
	StepDelay time.Duration
	// Timeout bounds a whole evaluation; zero leaves only the step budget.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxSteps:  defaultMaxSteps,
		StepDelay: time.Second,
	}
}

type Evaluator struct {
	cfg      Config
	envs     output.EnvironmentFactory
	agents   output.AgentLoaderPort
	progress output.ProgressPort
	metrics  output.MetricsPort
	logger   output.LoggerPort
}

func New(
	cfg Config,
	envs output.EnvironmentFactory,
	agents output.AgentLoaderPort,
	progress output.ProgressPort,
	metrics output.MetricsPort,
	logger output.LoggerPort,
) *Evaluator {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if progress == nil {
		progress = output.NopProgress{}
	}
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Evaluator{
		cfg:      cfg,
		envs:     envs,
		agents:   agents,
		progress: progress,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run never returns an error: every fault ends up in the result, which is
// always terminal when Run returns.
func (e *Evaluator) Run(ctx context.Context, req entity.EvaluationRequest) *entity.EvaluationResult {
	result := entity.NewEvaluationResult(req.EvaluationID)
	log := e.logger.WithField("evaluation_id", req.EvaluationID)

	e.metrics.EvaluationStarted()
	defer func() {
		e.metrics.EvaluationFinished(result, time.Since(result.StartedAt))
		e.progress.ShowOutcome(ctx, result)
		log.Info("Evaluation finished",
			"status", result.Status,
			"success", result.Success,
			"score", result.Score,
			"steps_taken", result.StepsTaken,
			"error", result.Error,
		)
	}()

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	log.Info("Starting evaluation", "challenge_url", req.ChallengeURL, "max_steps", e.cfg.MaxSteps)

	env, err := e.envs.NewEnvironment(ctx)
	if err != nil {
		result.Fail(0, nil, fmt.Errorf("%w: create environment: %w", entity.ErrEnvironment, err))
		return result
	}
	defer func() {
		if err := env.Close(); err != nil {
			log.Warn("Failed to close environment", "error", err)
		}
	}()

	agent, err := e.agents.Load(ctx, req.AgentSource)
	if err != nil {
		result.Fail(0, nil, err)
		e.capture(ctx, env, result, log)
		return result
	}

	obs, err := env.Reset(ctx, req.ChallengeURL)
	if err != nil {
		result.Fail(0, nil, fmt.Errorf("navigation failed: %w", err))
		e.capture(ctx, env, result, log)
		return result
	}

	e.step(ctx, env, agent, req.SuccessCriterion, obs, result, log)
	e.capture(ctx, env, result, log)
	return result
}

func (e *Evaluator) step(
	ctx context.Context,
	env output.EnvironmentPort,
	agent output.AgentPort,
	criterion string,
	obs *entity.Observation,
	result *entity.EvaluationResult,
	log output.LoggerPort,
) {
	for step := 1; step <= e.cfg.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			result.Fail(step-1, obs, fmt.Errorf("evaluation interrupted: %w", err))
			return
		}

		e.progress.ShowStep(ctx, step, e.cfg.MaxSteps)
		e.progress.ShowObservation(ctx, obs)

		text := observation.ExtractText(obs)
		log.Debug("Observation", "step", step, "preview", observation.Preview(text, previewLen))

		actions, err := agent.Decide(ctx, text)
		if err != nil {
			log.Error("Agent failed", "step", step, "error", err)
			result.Fail(step-1, obs, err)
			return
		}

		stopped, ended := false, false
		for _, action := range actions {
			if action.Type == entity.ActionStop {
				stopped = true
				break
			}

			// Handles in actions refer to the tree the agent was shown.
			concrete, err := resolver.ResolveOrDegrade(action, text)
			if err != nil {
				if !errors.Is(err, entity.ErrElementNotFound) {
					result.Fail(step-1, obs, err)
					return
				}
				log.Warn("Element not found, using selector as handle",
					"step", step, "selector", action.Selector, "action", concrete)
				e.progress.ShowActionError(ctx, action, err)
			}

			e.progress.ShowAction(ctx, action, concrete)
			res, err := env.Step(ctx, concrete)
			if err != nil {
				log.Error("Action failed", "step", step, "action", concrete, "error", err)
				result.Fail(step-1, obs, fmt.Errorf("%w: %s: %w", entity.ErrEnvironment, concrete, err))
				return
			}

			result.AppendLog(concrete)
			if res == nil {
				continue
			}
			if msg, ok := res.Info["fail_error"].(string); ok && msg != "" {
				log.Warn("Environment rejected action", "step", step, "action", concrete, "reason", msg)
			}
			if res.Observation != nil {
				obs = res.Observation
			}
			if res.Terminated || res.Truncated {
				ended = true
				break
			}
		}

		switch {
		case observation.IsSuccess(obs, criterion):
			result.Complete(true, step, obs, "Success criteria met")
			return
		case ended:
			result.Complete(false, step, obs, "Environment ended the episode before the success criteria were met")
			return
		case stopped:
			result.Complete(false, step, obs, "Agent stopped before the success criteria were met")
			return
		}

		if step < e.cfg.MaxSteps {
			if err := sleep(ctx, e.cfg.StepDelay); err != nil {
				result.Fail(step, obs, fmt.Errorf("evaluation interrupted: %w", err))
				return
			}
		}
	}

	result.Complete(false, e.cfg.MaxSteps, obs, fmt.Sprintf("Step budget of %d exhausted", e.cfg.MaxSteps))
}

// capture stores a final screenshot; failures never change the outcome. It
// also runs after a timeout, so it gets its own deadline.
func (e *Evaluator) capture(ctx context.Context, env output.EnvironmentPort, result *entity.EvaluationResult, log output.LoggerPort) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), renderTimeout)
	defer cancel()

	shot, err := env.Render(ctx)
	if err != nil {
		log.Warn("Failed to capture screenshot", "error", err)
		return
	}
	if shot != nil {
		result.Screenshot = shot.Data
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package output

import (
	"context"

	"agent-evaluator/internal/domain/entity"
)

type ProgressPort interface {
	ShowStep(ctx context.Context, step, maxSteps int)
	ShowObservation(ctx context.Context, obs *entity.Observation)
	ShowAction(ctx context.Context, action entity.Action, concrete string)
	ShowActionError(ctx context.Context, action entity.Action, err error)
	ShowOutcome(ctx context.Context, result *entity.EvaluationResult)
}

type NopProgress struct{}

func (NopProgress) ShowStep(context.Context, int, int) {}
func (NopProgress) ShowObservation(context.Context, *entity.Observation) {}
func (NopProgress) ShowAction(context.Context, entity.Action, string) {}
func (NopProgress) ShowActionError(context.Context, entity.Action, error) {}
func (NopProgress) ShowOutcome(context.Context, *entity.EvaluationResult) {}

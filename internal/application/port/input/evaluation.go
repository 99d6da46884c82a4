package input

import (
	"context"

	"agent-evaluator/internal/domain/entity"
)

// EvaluationRunner drives one evaluation to a terminal result. Faults are
// recorded in the result, never returned.
type EvaluationRunner interface {
	Run(ctx context.Context, req entity.EvaluationRequest) *entity.EvaluationResult
}

type EvaluationScheduler interface {
	Submit(req entity.EvaluationRequest) error
}

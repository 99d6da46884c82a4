package output

import (
	"context"

	"agent-evaluator/internal/domain/entity"
)

// CallbackPort delivers a terminal result. Delivery failures are absorbed by
// the implementation.
type CallbackPort interface {
	Deliver(ctx context.Context, callbackURL string, result *entity.EvaluationResult)
}

package output

import (
	"context"

	"agent-evaluator/internal/domain/entity"
)

// EnvironmentPort is a browser environment owned by exactly one evaluation.
type EnvironmentPort interface {
	Reset(ctx context.Context, url string) (*entity.Observation, error)
	Step(ctx context.Context, action string) (*entity.StepResult, error)
	Render(ctx context.Context) (*entity.Screenshot, error)
	Close() error
}

type EnvironmentFactory interface {
	NewEnvironment(ctx context.Context) (EnvironmentPort, error)
}

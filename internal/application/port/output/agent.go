package output

import (
	"context"

	"agent-evaluator/internal/domain/entity"
)

// AgentPort is caller-supplied decision logic after loading.
type AgentPort interface {
	Decide(ctx context.Context, observation string) ([]entity.Action, error)
}

type AgentLoaderPort interface {
	Load(ctx context.Context, source string) (AgentPort, error)
}

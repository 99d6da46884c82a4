package sandbox

import (
	"context"
	"fmt"

	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"

	"go.starlark.net/starlark"
)

var _ output.AgentPort = (*Agent)(nil)

// Agent is a loaded agent_logic function. Calls are serialized by the
// evaluation loop; an Agent must not be shared between evaluations.
type Agent struct {
	fn     starlark.Callable
	loader *Loader
	calls  int
}

// Decide calls agent_logic with the observation text and converts the result
// into actions.
func (a *Agent) Decide(ctx context.Context, observation string) ([]entity.Action, error) {
	a.calls++
	thread := a.loader.newThread(fmt.Sprintf("agent-call-%d", a.calls))
	stop := watchContext(ctx, thread)
	defer stop()

	v, err := starlark.Call(thread, a.fn, starlark.Tuple{starlark.String(observation)}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrAgentRuntime, describe(err))
	}

	actions, err := toActions(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrAgentRuntime, err)
	}
	return actions, nil
}

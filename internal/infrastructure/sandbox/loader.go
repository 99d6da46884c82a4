// Package sandbox loads caller-supplied agent logic into a Starlark
// interpreter. Starlark has no file, network or clock access, and every load
// and call runs under an execution-step budget and the caller's context.
//
// An agent script must define
//
//	def agent_logic(observation):
//	    return {"type": "click", "element_id": "12"}
//
// and may return a dict, a list of dicts, a raw action string, or None.
// Module-level dicts and lists are not frozen, so a script can keep state
// across the calls of one evaluation.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"

	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var _ output.AgentLoaderPort = (*Loader)(nil)

const (
	EntryPoint = "agent_logic"

	defaultMaxSteps = 10_000_000
)

type Config struct {
	// MaxExecutionSteps bounds module execution and each agent_logic call.
	MaxExecutionSteps uint64
	// TempDir holds the transient script file; "" means os.TempDir().
	TempDir string
}

func DefaultConfig() Config {
	return Config{
		MaxExecutionSteps: defaultMaxSteps,
	}
}

type Loader struct {
	cfg    Config
	logger output.LoggerPort
}

func NewLoader(cfg Config, logger output.LoggerPort) *Loader {
	if cfg.MaxExecutionSteps == 0 {
		cfg.MaxExecutionSteps = defaultMaxSteps
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Load executes source as an isolated module and returns its agent_logic.
// The source is written to a transient file for the duration of the load and
// removed on every path.
func (l *Loader) Load(ctx context.Context, source string) (output.AgentPort, error) {
	path, cleanup, err := l.materialize(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrAgentLoad, err)
	}
	defer cleanup()

	thread := l.newThread("agent-load")
	stop := watchContext(ctx, thread)
	defer stop()

	globals, err := l.exec(thread, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrAgentLoad, describe(err))
	}

	fn, err := entryPoint(globals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrAgentLoad, err)
	}

	l.logger.Debug("Agent loaded", "entry_point", EntryPoint, "globals", len(globals))

	return &Agent{
		fn:     fn,
		loader: l,
	}, nil
}

// exec compiles and runs the module. Unlike starlark.ExecFile it leaves the
// globals unfrozen, so agent_logic may mutate module-level state.
func (l *Loader) exec(thread *starlark.Thread, path string) (starlark.StringDict, error) {
	env := predeclared()
	_, prog, err := starlark.SourceProgram(path, nil, env.Has)
	if err != nil {
		return nil, err
	}
	return prog.Init(thread, env)
}

func (l *Loader) materialize(source string) (string, func(), error) {
	f, err := os.CreateTemp(l.cfg.TempDir, "agent-*.star")
	if err != nil {
		return "", nil, fmt.Errorf("create agent file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			l.logger.Warn("Failed to remove agent file", "path", path, "error", err)
		}
	}

	if _, err := f.WriteString(source); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write agent file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close agent file: %w", err)
	}
	return path, cleanup, nil
}

func (l *Loader) newThread(name string) *starlark.Thread {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			l.logger.Info("Agent output", "message", msg)
		},
	}
	thread.SetMaxExecutionSteps(l.cfg.MaxExecutionSteps)
	return thread
}

func entryPoint(globals starlark.StringDict) (starlark.Callable, error) {
	v, ok := globals[EntryPoint]
	if !ok {
		return nil, fmt.Errorf("agent code must define an '%s' function", EntryPoint)
	}

	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("'%s' is a %s, not a function", EntryPoint, v.Type())
	}

	// NumParams counts *args and **kwargs too.
	if f, ok := fn.(*starlark.Function); ok && f.NumParams() == 0 {
		return nil, fmt.Errorf("'%s' must accept the observation text as its argument", EntryPoint)
	}

	return fn, nil
}

// watchContext cancels the thread when ctx is done. The returned func must be
// called once the thread is no longer in use.
func watchContext(ctx context.Context, thread *starlark.Thread) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()
	return func() { close(done) }
}

// describe drops the transient file name from interpreter errors.
func describe(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Msg
	}
	var synErr syntax.Error
	if errors.As(err, &synErr) {
		return fmt.Sprintf("syntax error at line %d, column %d: %s", synErr.Pos.Line, synErr.Pos.Col, synErr.Msg)
	}
	return err.Error()
}

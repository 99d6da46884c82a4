package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"agent-evaluator/internal/application/port/input"
	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"

	"github.com/google/uuid"
)

var _ input.EvaluationScheduler = (*Scheduler)(nil)

var ErrShuttingDown = errors.New("scheduler is shutting down")

// Scheduler runs every accepted evaluation in its own goroutine and delivers
// the result when it is done. Evaluations are detached from the request that
// submitted them; only Shutdown can interrupt them.
type Scheduler struct {
	runner   input.EvaluationRunner
	callback output.CallbackPort
	logger   output.LoggerPort

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closing bool
	active  map[string]string // run_id -> evaluation_id
}

func NewScheduler(runner input.EvaluationRunner, callback output.CallbackPort, logger output.LoggerPort) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:   runner,
		callback: callback,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		active:   make(map[string]string),
	}
}

func (s *Scheduler) Submit(req entity.EvaluationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return ErrShuttingDown
	}

	runID := uuid.NewString()
	s.active[runID] = req.EvaluationID
	s.wg.Add(1)

	go s.run(runID, req)

	s.logger.Info("Evaluation scheduled", "evaluation_id", req.EvaluationID, "run_id", runID, "active", len(s.active))
	return nil
}

// Active returns the number of evaluations that have not delivered yet.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Shutdown stops accepting work and waits for running evaluations. When ctx
// expires first, running evaluations are cancelled; their results are still
// delivered before Shutdown returns ctx.Err().
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	pending := len(s.active)
	s.mu.Unlock()

	s.logger.Info("Waiting for running evaluations", "active", pending)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.logger.Warn("Shutdown deadline reached, cancelling evaluations", "active", s.Active())
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *Scheduler) run(runID string, req entity.EvaluationRequest) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.active, runID)
		s.mu.Unlock()
	}()

	log := s.logger.WithFields(map[string]any{
		"evaluation_id": req.EvaluationID,
		"run_id":        runID,
	})

	result := s.evaluate(req, log)
	s.callback.Deliver(context.WithoutCancel(s.ctx), req.CallbackURL, result)
}

func (s *Scheduler) evaluate(req entity.EvaluationRequest, log output.LoggerPort) (result *entity.EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Evaluation panicked", "panic", r)
			result = entity.NewEvaluationResult(req.EvaluationID)
			result.Fail(0, nil, fmt.Errorf("internal error: %v", r))
		}
	}()
	return s.runner.Run(s.ctx, req)
}

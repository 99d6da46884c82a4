package di

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"agent-evaluator/internal/adapter/api"
	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/application/service"
	"agent-evaluator/internal/infrastructure/browser/rod"
	"agent-evaluator/internal/infrastructure/callback"
	"agent-evaluator/internal/infrastructure/logger"
	"agent-evaluator/internal/infrastructure/metrics"
	"agent-evaluator/internal/infrastructure/sandbox"
	"agent-evaluator/internal/usecase/evaluator"
)

type Container struct {
	Config    Config
	Logger    *logger.LoggerAdapter
	Metrics   *metrics.Collector
	Browser   *rod.Factory
	Agents    *sandbox.Loader
	Evaluator *evaluator.Evaluator
	Callback  *callback.Dispatcher
	Scheduler *service.Scheduler
	Router    http.Handler
}

// NewContainer wires the service. The browser is launched lazily by the
// first evaluation.
func NewContainer(cfg Config, logOut io.Writer) (*Container, error) {
	log, err := logger.New(cfg.Logger, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.NewCollector(),
		Browser: rod.NewFactory(cfg.Browser, log.WithField("component", "browser")),
		Agents:  sandbox.NewLoader(cfg.Sandbox, log.WithField("component", "sandbox")),
	}

	c.Evaluator = c.NewEvaluator(nil)
	c.Callback = callback.NewDispatcher(cfg.Callback, c.Metrics, log.WithField("component", "callback"))
	c.Scheduler = service.NewScheduler(c.Evaluator, c.Callback, log.WithField("component", "scheduler"))

	handler := api.NewHandler(c.Scheduler, log.WithField("component", "api"))
	c.Router = api.NewRouter(cfg.Router, handler, c.Metrics, log)

	return c, nil
}

// NewEvaluator builds an evaluator on the shared browser and sandbox with its
// own progress reporter; nil reports nothing.
func (c *Container) NewEvaluator(progress output.ProgressPort) *evaluator.Evaluator {
	return evaluator.New(
		c.Config.Evaluator,
		c.Browser,
		c.Agents,
		progress,
		c.Metrics,
		c.Logger.WithField("component", "evaluator"),
	)
}

// Close releases the browser and flushes the logger. The scheduler must be
// drained before.
func (c *Container) Close() error {
	var errs []error
	if c.Callback != nil {
		c.Callback.Close()
	}
	if c.Browser != nil {
		if err := c.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if c.Logger != nil {
		if err := c.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger: %w", err))
		}
	}
	return errors.Join(errs...)
}

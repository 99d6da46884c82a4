package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"agent-evaluator/internal/di"
	"agent-evaluator/internal/infrastructure/env"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("agent-evaluator: %v", err)
	}
}

func run() error {
	envService := env.NewEnvService()

	cfg, err := di.LoadConfig(envService)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	container, err := di.NewContainer(cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()
	logger := container.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening",
			"addr", cfg.HTTPAddr,
			"app_env", envService.AppEnv(),
			"env_files", envService.LoadedFiles(),
			"max_steps", cfg.Evaluator.MaxSteps,
			"observation_type", cfg.Browser.ObservationType,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "grace_period", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown incomplete", "error", err)
		}
		if err := container.Scheduler.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Evaluations cancelled at shutdown", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// Package callback posts terminal evaluation results back to the caller.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"
)

var _ output.CallbackPort = (*Dispatcher)(nil)

const maxResponseBody = 4 << 10

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Timeout:   10 * time.Second,
		UserAgent: "agent-evaluator/1.0",
	}
}

// Payload is the JSON body of a callback.
type Payload struct {
	EvaluationID string                  `json:"evaluation_id"`
	Status       entity.EvaluationStatus `json:"status"`
	Success      bool                    `json:"success"`
	Score        int                     `json:"score"`
	StepsTaken   int                     `json:"steps_taken"`
	Result       *entity.Observation     `json:"result"`
	Message      string                  `json:"message"`
	Error        *string                 `json:"error"`
	Logs         []string                `json:"logs"`
}

// NewPayload builds the body from a result stripped of binary payloads.
func NewPayload(result *entity.EvaluationResult) Payload {
	r := result.ForDelivery()
	p := Payload{
		EvaluationID: r.EvaluationID,
		Status:       r.Status,
		Success:      r.Success,
		Score:        r.Score,
		StepsTaken:   r.StepsTaken,
		Result:       r.Result,
		Message:      r.Message,
		Logs:         r.Logs,
	}
	if r.Error != "" {
		p.Error = &r.Error
	}
	return p
}

type Dispatcher struct {
	cfg     Config
	client  *http.Client
	metrics output.MetricsPort
	logger  output.LoggerPort
}

func NewDispatcher(cfg Config, metrics output.MetricsPort, logger output.LoggerPort) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Dispatcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &loggingTransport{
				base:   http.DefaultTransport.(*http.Transport).Clone(),
				logger: logger,
			},
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Close drops idle keep-alive connections.
func (d *Dispatcher) Close() {
	d.client.CloseIdleConnections()
}

// Deliver makes one attempt and only logs a failure.
func (d *Dispatcher) Deliver(ctx context.Context, callbackURL string, result *entity.EvaluationResult) {
	err := d.Send(ctx, callbackURL, result)
	d.metrics.CallbackDelivered(err == nil)
	if err != nil {
		d.logger.Error("Callback delivery failed",
			"evaluation_id", result.EvaluationID,
			"callback_url", callbackURL,
			"error", err,
		)
		return
	}
	d.logger.Info("Callback delivered", "evaluation_id", result.EvaluationID, "status", result.Status)
}

// Send posts the result once and reports any failure as ErrCallbackDelivery.
func (d *Dispatcher) Send(ctx context.Context, callbackURL string, result *entity.EvaluationResult) error {
	body, err := json.Marshal(NewPayload(result))
	if err != nil {
		return fmt.Errorf("%w: encode payload: %w", entity.ErrCallbackDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", entity.ErrCallbackDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrCallbackDelivery, err)
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: %s", entity.ErrCallbackDelivery, resp.Status, bytes.TrimSpace(snippet))
	}
	return nil
}

// Package api is the HTTP intake of the evaluator: it validates requests,
// hands them to the scheduler and answers before the evaluation starts.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"agent-evaluator/internal/application/port/input"
	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"
)

const maxRequestBody = 1 << 20

type EvaluateResponse struct {
	EvaluationID string                  `json:"evaluation_id"`
	Status       entity.EvaluationStatus `json:"status"`
	Message      string                  `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type Handler struct {
	scheduler input.EvaluationScheduler
	logger    output.LoggerPort
}

func NewHandler(scheduler input.EvaluationScheduler, logger output.LoggerPort) *Handler {
	return &Handler{
		scheduler: scheduler,
		logger:    logger,
	}
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req entity.EvaluationRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.Warn("Rejected evaluation request", "evaluation_id", req.EvaluationID, "error", err)
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.scheduler.Submit(req); err != nil {
		h.logger.Error("Failed to schedule evaluation", "evaluation_id", req.EvaluationID, "error", err)
		h.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start evaluation: %v", err))
		return
	}

	h.logger.Info("Evaluation accepted", "evaluation_id", req.EvaluationID, "challenge_url", req.ChallengeURL)
	h.respondWithJSON(w, http.StatusOK, EvaluateResponse{
		EvaluationID: req.EvaluationID,
		Status:       entity.StatusRunning,
		Message:      "Evaluation started successfully",
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, detail string) {
	h.respondWithJSON(w, code, errorResponse{Detail: detail})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("Failed to write response", "error", err)
	}
}

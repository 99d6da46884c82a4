package entity

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type EvaluationStatus string

const (
	StatusRunning   EvaluationStatus = "running"
	StatusCompleted EvaluationStatus = "completed"
	StatusFailed    EvaluationStatus = "failed"
)

const (
	ScoreFailure = 0
	ScoreSuccess = 100
)

// EvaluationRequest is accepted once by intake and never modified afterwards.
type EvaluationRequest struct {
	EvaluationID     string `json:"evaluation_id"`
	AgentSource      string `json:"agent_code"`
	ChallengeURL     string `json:"challenge_url"`
	SuccessCriterion string `json:"success_criteria"`
	CallbackURL      string `json:"callback_url"`
}

// Validate reports every missing or malformed field at once.
func (r EvaluationRequest) Validate() error {
	var problems []string

	required := []struct {
		name  string
		value string
	}{
		{"evaluation_id", r.EvaluationID},
		{"agent_code", r.AgentSource},
		{"challenge_url", r.ChallengeURL},
		{"success_criteria", r.SuccessCriterion},
		{"callback_url", r.CallbackURL},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, fmt.Sprintf("%s is required", f.name))
		}
	}

	if r.ChallengeURL != "" && !isHTTPURL(r.ChallengeURL) {
		problems = append(problems, "challenge_url must be an absolute http(s) URL")
	}
	if r.CallbackURL != "" && !isHTTPURL(r.CallbackURL) {
		problems = append(problems, "callback_url must be an absolute http(s) URL")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// EvaluationResult is built incrementally by the evaluation loop and handed to
// the callback dispatcher once it reaches a terminal status.
type EvaluationResult struct {
	EvaluationID string           `json:"evaluation_id"`
	Status       EvaluationStatus `json:"status"`
	Success      bool             `json:"success"`
	Score        int              `json:"score"`
	StepsTaken   int              `json:"steps_taken"`
	Result       *Observation     `json:"result"`
	Message      string           `json:"message,omitempty"`
	Error        string           `json:"error,omitempty"`
	Logs         []string         `json:"logs"`
	Screenshot   []byte           `json:"screenshot,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
}

func NewEvaluationResult(evaluationID string) *EvaluationResult {
	return &EvaluationResult{
		EvaluationID: evaluationID,
		Status:       StatusRunning,
		Score:        ScoreFailure,
		Logs:         []string{},
		StartedAt:    time.Now(),
	}
}

func (r *EvaluationResult) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

func (r *EvaluationResult) AppendLog(entry string) {
	if r.IsTerminal() {
		return
	}
	r.Logs = append(r.Logs, entry)
}

// Complete moves a running result to completed. A second transition is ignored
// and reported as false.
func (r *EvaluationResult) Complete(success bool, steps int, final *Observation, message string) bool {
	if r.IsTerminal() {
		return false
	}
	r.Status = StatusCompleted
	r.Success = success
	if success {
		r.Score = ScoreSuccess
	} else {
		r.Score = ScoreFailure
	}
	r.StepsTaken = steps
	r.Result = final
	r.Message = message
	r.finish()
	return true
}

// Fail moves a running result to failed, keeping the logs collected so far.
func (r *EvaluationResult) Fail(steps int, final *Observation, err error) bool {
	if r.IsTerminal() {
		return false
	}
	r.Status = StatusFailed
	r.Success = false
	r.Score = ScoreFailure
	r.StepsTaken = steps
	r.Result = final
	if err != nil {
		r.Error = err.Error()
		r.Message = "Evaluation failed: " + err.Error()
	}
	r.finish()
	return true
}

func (r *EvaluationResult) finish() {
	now := time.Now()
	r.FinishedAt = &now
}

// ForDelivery returns a copy without binary payloads.
func (r *EvaluationResult) ForDelivery() *EvaluationResult {
	out := *r
	out.Screenshot = nil
	out.Logs = append([]string(nil), r.Logs...)
	if out.Logs == nil {
		out.Logs = []string{}
	}
	if r.Result != nil {
		obs := r.Result.WithoutImage()
		out.Result = &obs
	}
	return &out
}

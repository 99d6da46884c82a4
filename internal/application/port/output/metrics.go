package output

import (
	"time"

	"agent-evaluator/internal/domain/entity"
)

type MetricsPort interface {
	EvaluationStarted()
	EvaluationFinished(result *entity.EvaluationResult, duration time.Duration)
	CallbackDelivered(ok bool)
}

type NopMetrics struct{}

func (NopMetrics) EvaluationStarted() {}
func (NopMetrics) EvaluationFinished(*entity.EvaluationResult, time.Duration) {}
func (NopMetrics) CallbackDelivered(bool) {}

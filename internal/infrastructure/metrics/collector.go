// Package metrics exposes evaluation counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ output.MetricsPort = (*Collector)(nil)

const namespace = "agent_evaluator"

// Outcome label values.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeExhausted = "exhausted"
	OutcomeErrored   = "errored"
)

type Collector struct {
	registry *prometheus.Registry

	evaluationsInFlight prometheus.Gauge
	evaluationsTotal    *prometheus.CounterVec
	evaluationDuration  prometheus.Histogram
	evaluationSteps     prometheus.Histogram
	callbacksTotal      *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		evaluationsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluations_in_flight",
			Help:      "Evaluations currently running",
		}),
		evaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Finished evaluations by outcome",
		}, []string{"outcome"}),
		evaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Wall-clock duration of an evaluation",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		evaluationSteps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_steps",
			Help:      "Steps taken per evaluation",
			Buckets:   prometheus.LinearBuckets(0, 5, 6),
		}),
		callbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Callback deliveries by result",
		}, []string{"result"}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) EvaluationStarted() {
	c.evaluationsInFlight.Inc()
}

func (c *Collector) EvaluationFinished(result *entity.EvaluationResult, duration time.Duration) {
	c.evaluationsInFlight.Dec()
	c.evaluationsTotal.WithLabelValues(Outcome(result)).Inc()
	c.evaluationDuration.Observe(duration.Seconds())
	c.evaluationSteps.Observe(float64(result.StepsTaken))
}

func (c *Collector) CallbackDelivered(ok bool) {
	label := "delivered"
	if !ok {
		label = "failed"
	}
	c.callbacksTotal.WithLabelValues(label).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func Outcome(result *entity.EvaluationResult) string {
	switch {
	case result.Status == entity.StatusFailed:
		return OutcomeErrored
	case result.Success:
		return OutcomeSucceeded
	default:
		return OutcomeExhausted
	}
}

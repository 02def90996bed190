// Package metrics records fit telemetry as Prometheus collectors.
package metrics

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tumorfit"

// Recorder owns a private registry so concurrent CLI runs and tests never
// share collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	bestCost    *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Number of objective evaluations per growth model.",
		}, []string{"model"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_failures_total",
			Help:      "Evaluations that returned the infinite-cost sentinel.",
		}, []string{"model"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Wall time of one model fit.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"model", "strategy"}),
		bestCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fit_best_cost",
			Help:      "Best log-domain MSE found for a model.",
		}, []string{"model"}),
	}
	r.registry.MustRegister(r.evaluations, r.failures, r.duration, r.bestCost)
	return r
}

// ObserveEvaluation counts one objective evaluation.
func (r *Recorder) ObserveEvaluation(model string, cost float64) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(model).Inc()
	if math.IsInf(cost, 1) || math.IsNaN(cost) {
		r.failures.WithLabelValues(model).Inc()
	}
}

// ObserveFit records the outcome of a completed fit.
func (r *Recorder) ObserveFit(model, strategy string, elapsed time.Duration, cost float64) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(model, strategy).Observe(elapsed.Seconds())
	r.bestCost.WithLabelValues(model).Set(cost)
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile writes all collectors in the text exposition format, suitable
// for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Gatherer())
}

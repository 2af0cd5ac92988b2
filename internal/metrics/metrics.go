// Package metrics exposes Prometheus metrics for quiz scenario runs.
package metrics

import (
	"strconv"

	"github.com/moolen/quizcheck/internal/quiz"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records phase outcomes and timing. It implements quiz.Observer.
type Metrics struct {
	PhaseWaitSeconds  *prometheus.HistogramVec // Time until each phase predicate held
	PhaseDriftSeconds *prometheus.GaugeVec     // Last observed drift from the nominal duration
	PhaseResults      *prometheus.CounterVec   // Step outcomes by phase and result
	RunsTotal         *prometheus.CounterVec   // Completed scenario runs by result
}

// NewMetrics creates and registers the metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PhaseWaitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quizcheck_phase_wait_seconds",
			Help:    "Time spent waiting for a quiz phase to be reached",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 12, 15, 18, 20, 30},
		}, []string{"phase"}),
		PhaseDriftSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quizcheck_phase_drift_seconds",
			Help: "Difference between observed and nominal phase duration",
		}, []string{"phase", "question"}),
		PhaseResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizcheck_phase_results_total",
			Help: "Quiz phase verification outcomes",
		}, []string{"phase", "result"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizcheck_runs_total",
			Help: "Completed quiz scenario runs",
		}, []string{"result"}),
	}

	reg.MustRegister(m.PhaseWaitSeconds, m.PhaseDriftSeconds, m.PhaseResults, m.RunsTotal)
	return m
}

// StepCompleted implements quiz.Observer.
func (m *Metrics) StepCompleted(step quiz.StepResult) {
	phase := step.Phase.String()
	result := "pass"
	if !step.Passed {
		result = step.ErrorKind
		if result == "" {
			result = "fail"
		}
	}
	m.PhaseResults.WithLabelValues(phase, result).Inc()
	m.PhaseWaitSeconds.WithLabelValues(phase).Observe(step.Elapsed.Seconds())
	if step.Passed {
		m.PhaseDriftSeconds.WithLabelValues(phase, strconv.Itoa(step.Question)).Set(step.Drift.Seconds())
	}
}

// RunCompleted implements quiz.Observer.
func (m *Metrics) RunCompleted(report *quiz.ScenarioReport) {
	switch {
	case report.Aborted != nil:
		m.RunsTotal.WithLabelValues("aborted").Inc()
	case report.Passed():
		m.RunsTotal.WithLabelValues("pass").Inc()
	default:
		m.RunsTotal.WithLabelValues("fail").Inc()
	}
}

// Package metrics exposes Prometheus instruments for the orchestrator. A nil
// *Metrics records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cogniflow"

// Metrics groups the orchestrator instruments registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	submissions     *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	steps           *prometheus.CounterVec
	stepLatency     *prometheus.HistogramVec
	planSize        prometheus.Histogram
	synthesisChunks prometheus.Counter
	cancellations   prometheus.Counter
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		Registry: registry,
		// outcome: accepted, rejected
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Queries submitted by outcome",
		}, []string{"outcome"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Process state transitions by target state",
		}, []string{"state"}),
		// status: complete, error
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "steps_total",
			Help:      "Executed plan steps by tool and status",
		}, []string{"tool", "status"}),
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "step_duration_seconds",
			Help:      "Step execution latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"tool"}),
		planSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plan_steps",
			Help:      "Number of steps in attached plans",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 15},
		}),
		synthesisChunks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "synthesizer",
			Name:      "chunks_total",
			Help:      "Streamed synthesis chunks appended to answers",
		}),
		cancellations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Tasks cancelled by the operator",
		}),
	}
}

// Submission counts a submission attempt.
func (m *Metrics) Submission(accepted bool) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// Transition counts entering state.
func (m *Metrics) Transition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// Step records an executed step.
func (m *Metrics) Step(tool, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(tool, status).Inc()
	m.stepLatency.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// PlanAttached records the size of an attached plan.
func (m *Metrics) PlanAttached(steps int) {
	if m == nil {
		return
	}
	m.planSize.Observe(float64(steps))
}

// Chunk counts a synthesis chunk.
func (m *Metrics) Chunk() {
	if m == nil {
		return
	}
	m.synthesisChunks.Inc()
}

// Cancelled counts a cancellation.
func (m *Metrics) Cancelled() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}

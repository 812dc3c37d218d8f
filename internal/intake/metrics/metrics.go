package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the intake state machine and the finalizer.
type Metrics struct {
	// Messages handled by the step they arrived at and the response kind
	MessagesHandled *prometheus.CounterVec

	HandleLatency *prometheus.HistogramVec

	// Step transitions, labelled from and to
	Transitions *prometheus.CounterVec

	// Terminal outcomes: completed, declined, ineligible, exited, duplicate
	Outcomes *prometheus.CounterVec

	FinalizeLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		MessagesHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_messages_total",
			Help: "Inbound intake messages by step and response kind",
		}, []string{"step", "kind"}),

		HandleLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_handle_duration_seconds",
			Help:    "Duration of one intake message, document analysis included",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"step"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_step_transitions_total",
			Help: "Step transitions taken by the intake state machine",
		}, []string{"from", "to"}),

		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_outcomes_total",
			Help: "Sessions reaching an end state",
		}, []string{"outcome"}),

		FinalizeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_finalize_duration_seconds",
			Help:    "Duration of application finalization",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementMessage(step, kind string) {
	if m != nil {
		m.MessagesHandled.WithLabelValues(step, kind).Inc()
	}
}

func (m *Metrics) ObserveHandleLatency(step string, d time.Duration) {
	if m != nil {
		m.HandleLatency.WithLabelValues(step).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveFinalizeLatency(d time.Duration) {
	if m != nil {
		m.FinalizeLatency.Observe(d.Seconds())
	}
}

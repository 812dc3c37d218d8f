package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the document intelligence pipeline.
type Metrics struct {
	// Analyze outcomes by kind and result: accepted or a rejection reason
	AnalyzeOutcome *prometheus.CounterVec

	// Analyze latency by kind, OCR included
	AnalyzeLatency *prometheus.HistogramVec

	// Extraction source by kind: llm, fallback or breaker_open
	ExtractionSource *prometheus.CounterVec

	LLMBreakerState prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		AnalyzeOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_document_analyze_total",
			Help: "Document analysis outcomes by kind and result",
		}, []string{"kind", "result"}),

		AnalyzeLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_document_analyze_duration_seconds",
			Help:    "Duration of document analysis including OCR and extraction",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"kind"}),

		ExtractionSource: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_document_extraction_source_total",
			Help: "Field extraction attempts by kind and source",
		}, []string{"kind", "source"}),

		LLMBreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "intake_document_llm_breaker_open",
			Help: "1 while the LLM circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncrementOutcome(kind, result string) {
	if m != nil {
		m.AnalyzeOutcome.WithLabelValues(kind, result).Inc()
	}
}

func (m *Metrics) ObserveAnalyzeLatency(kind string, d time.Duration) {
	if m != nil {
		m.AnalyzeLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementExtractionSource(kind, source string) {
	if m != nil {
		m.ExtractionSource.WithLabelValues(kind, source).Inc()
	}
}

// SetBreakerOpen records the LLM breaker position.
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.LLMBreakerState.Set(1)
		return
	}
	m.LLMBreakerState.Set(0)
}

// Package extractor turns OCR text into the field map of a document kind.
// The LLM is asked first; deterministic patterns fill whatever it missed and
// stand in entirely while the LLM is failing.
package extractor

import (
	"context"
	"log/slog"
	"time"

	"enrollment/internal/document/metrics"
	"enrollment/internal/document/models"
	"enrollment/pkg/platform/circuit"
)

// LLM performs structured extraction against a field schema.
type LLM interface {
	ExtractFields(ctx context.Context, rawText string, kind models.Kind, fields []string) (models.Fields, error)
}

type Extractor struct {
	llm     LLM
	breaker *circuit.Breaker
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Extractor)

func WithBreaker(b *circuit.Breaker) Option {
	return func(e *Extractor) { e.breaker = b }
}

func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// New builds an Extractor. A nil llm runs on patterns alone.
func New(llm LLM, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		llm:     llm,
		breaker: circuit.New("llm"),
		timeout: 20 * time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: an LLM error degrades to pattern extraction, and a
// kind without a schema yields an empty map.
func (e *Extractor) Extract(ctx context.Context, rawText string, kind models.Kind) models.Fields {
	profile, ok := models.ProfileFor(kind)
	if !ok || len(profile.Fields) == 0 {
		return models.Fields{}
	}

	fields := e.fromLLM(ctx, rawText, kind, profile.Fields)
	for k, v := range Fallback(rawText, kind) {
		if fields.Get(k) == "" {
			fields[k] = v
		}
	}
	normalize(fields)
	return fields
}

func (e *Extractor) fromLLM(ctx context.Context, rawText string, kind models.Kind, schema []string) models.Fields {
	if e.llm == nil {
		e.metrics.IncrementExtractionSource(string(kind), "fallback")
		return models.Fields{}
	}
	if !e.breaker.Allow() {
		e.metrics.IncrementExtractionSource(string(kind), "breaker_open")
		return models.Fields{}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	fields, err := e.llm.ExtractFields(callCtx, rawText, kind, schema)
	if err != nil {
		if _, change := e.breaker.RecordFailure(); change.Opened {
			e.logger.WarnContext(ctx, "llm circuit breaker opened", "breaker", e.breaker.Name())
			e.metrics.SetBreakerOpen(true)
		}
		e.logger.WarnContext(ctx, "llm extraction failed, using pattern fallback", "kind", kind, "error", err)
		e.metrics.IncrementExtractionSource(string(kind), "fallback")
		return models.Fields{}
	}
	if _, change := e.breaker.RecordSuccess(); change.Closed {
		e.logger.InfoContext(ctx, "llm circuit breaker closed", "breaker", e.breaker.Name())
		e.metrics.SetBreakerOpen(false)
	}
	e.metrics.IncrementExtractionSource(string(kind), "llm")
	if fields == nil {
		fields = models.Fields{}
	}
	return fields.Clone()
}

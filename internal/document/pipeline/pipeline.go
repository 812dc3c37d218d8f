// Package pipeline analyzes one uploaded document: OCR, kind check,
// structured extraction and holder-name cross-check. It has no storage side
// effects.
package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"enrollment/internal/document/metrics"
	"enrollment/internal/document/models"
	"enrollment/internal/document/ocr"
	"enrollment/internal/document/validator"
)

// FieldFormat is the field set on accepted photographs.
const FieldFormat = "format"

// FieldExtractor pulls the field map of kind out of raw text.
type FieldExtractor interface {
	Extract(ctx context.Context, rawText string, kind models.Kind) models.Fields
}

type Pipeline struct {
	ocr       ocr.Recognizer
	extractor FieldExtractor
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

func New(recognizer ocr.Recognizer, extractor FieldExtractor, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		ocr:       recognizer,
		extractor: extractor,
		logger:    logger,
		tracer:    otel.Tracer("enrollment/document"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze runs the document through recognition, validation and extraction.
// A rejected document is a valid *Result with Valid=false; the error return
// is reserved for collaborator failures (OCR unavailable or timed out).
func (p *Pipeline) Analyze(ctx context.Context, file []byte, kind models.Kind, expectedName, language string) (*models.Result, error) {
	ctx, span := p.tracer.Start(ctx, "document.analyze",
		trace.WithAttributes(attribute.String("document.kind", string(kind))))
	defer span.End()
	start := time.Now()

	result, err := p.analyze(ctx, file, kind, expectedName, language)
	p.metrics.ObserveAnalyzeLatency(string(kind), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analyze failed")
		p.metrics.IncrementOutcome(string(kind), "error")
		p.logger.ErrorContext(ctx, "document analysis failed", "kind", kind, "error", err)
		return nil, err
	}

	outcome := "accepted"
	if !result.Valid {
		outcome = string(result.Reason)
	}
	span.SetAttributes(attribute.String("document.outcome", outcome))
	p.metrics.IncrementOutcome(string(kind), outcome)
	p.logger.InfoContext(ctx, "document analyzed",
		"kind", kind,
		"outcome", outcome,
		"fields", len(result.Fields),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (p *Pipeline) analyze(ctx context.Context, file []byte, kind models.Kind, expectedName, language string) (*models.Result, error) {
	profile, _ := models.ProfileFor(kind)
	if len(profile.Keywords) == 0 && len(profile.Fields) == 0 {
		return photograph(file, kind, language), nil
	}

	rawText, err := p.ocr.Recognize(ctx, file)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawText) == "" {
		return models.Rejected(kind, models.ReasonUnreadable, rejectionText(language, models.ReasonUnreadable, kind.Label()), ""), nil
	}

	if !validator.MatchesKind(rawText, kind) {
		return models.Rejected(kind, models.ReasonWrongKind, rejectionText(language, models.ReasonWrongKind, kind.Label()), rawText), nil
	}

	fields := p.extractor.Extract(ctx, rawText, kind)
	if len(fields) == 0 {
		return models.Rejected(kind, models.ReasonUnreadable, rejectionText(language, models.ReasonUnreadable, kind.Label()), rawText), nil
	}

	if expectedName != "" {
		if holder := validator.HolderName(kind, fields); holder != "" && !validator.NamesMatch(expectedName, holder) {
			msg := rejectionText(language, models.ReasonNameMismatch, holder, expectedName)
			return models.Rejected(kind, models.ReasonNameMismatch, msg, rawText), nil
		}
	}

	return models.Accepted(kind, rawText, fields), nil
}

// photograph accepts any image or PDF without OCR; the detected media type
// is the only field.
func photograph(file []byte, kind models.Kind, language string) *models.Result {
	format := http.DetectContentType(file)
	if len(file) == 0 || !(strings.HasPrefix(format, "image/") || format == "application/pdf") {
		return models.Rejected(kind, models.ReasonUnreadable, rejectionText(language, models.ReasonUnreadable, kind.Label()), "")
	}
	return models.Accepted(kind, "", models.Fields{FieldFormat: format})
}

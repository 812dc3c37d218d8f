// Package service turns a completed intake session into a durable
// application record.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"enrollment/internal/application/models"
	intakemetrics "enrollment/internal/intake/metrics"
	intake "enrollment/internal/intake/models"
	dErrors "enrollment/pkg/domain-errors"
	"enrollment/pkg/platform/pii"
	"enrollment/pkg/platform/sentinel"
	"enrollment/pkg/requestcontext"
)

// Store persists applications. Writes made through the context handed to
// the RunInTx callback commit together or not at all.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindByPrimaryID(ctx context.Context, primaryID string) (*models.Filing, error)
	SaveBeneficiary(ctx context.Context, b *models.Beneficiary) error
	SaveDocument(ctx context.Context, d *models.DocumentRecord) error
}

// Finalize outcomes the intake machine reacts to.
var (
	ErrAlreadyApplied = dErrors.New(dErrors.CodeConflict, "an application already exists for this applicant")
	ErrIneligible     = dErrors.New(dErrors.CodeInvariantViolation, "annual income exceeds the ceiling")
)

const (
	defaultDocumentWorkers = 4
	dobLayout              = "02/01/2006"
)

type Finalizer struct {
	store   Store
	ceiling decimal.Decimal
	hasher  *pii.Hasher
	logger  *slog.Logger
	metrics *intakemetrics.Metrics
	tracer  trace.Tracer
	workers int
}

type Option func(*Finalizer)

func WithMetrics(m *intakemetrics.Metrics) Option {
	return func(f *Finalizer) { f.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(f *Finalizer) { f.tracer = t }
}

// WithDocumentWorkers bounds concurrent document inserts.
func WithDocumentWorkers(n int) Option {
	return func(f *Finalizer) {
		if n > 0 {
			f.workers = n
		}
	}
}

func New(store Store, ceiling decimal.Decimal, hasher *pii.Hasher, logger *slog.Logger, opts ...Option) *Finalizer {
	f := &Finalizer{
		store:   store,
		ceiling: ceiling,
		hasher:  hasher,
		logger:  logger,
		tracer:  otel.Tracer("enrollment/application"),
		workers: defaultDocumentWorkers,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Finalize files the application for sess and returns its id. When the
// record on file was filed by this same session its id is returned again,
// so a repeated SUBMIT never reports the applicant's own filing as a
// duplicate. It returns ErrAlreadyApplied when another session filed for
// the applicant and ErrIneligible when the income recheck fails. Any other
// error means nothing was written and the caller may retry.
func (f *Finalizer) Finalize(ctx context.Context, sess *intake.Session) (string, error) {
	ctx, span := f.tracer.Start(ctx, "application.finalize",
		trace.WithAttributes(attribute.String("session_id", sess.ID)))
	defer span.End()
	start := time.Now()
	defer func() { f.metrics.ObserveFinalizeLatency(time.Since(start)) }()

	if sess.Identity.PrimaryID == "" {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "session has no primary identity number")
	}
	subject := f.hasher.Hash(sess.Identity.PrimaryID)

	existing, done, err := f.onRecord(ctx, sess, subject)
	switch {
	case errors.Is(err, ErrAlreadyApplied):
		return "", err
	case err != nil:
		return "", f.fail(ctx, span, err, "duplicate check failed", subject)
	case done:
		return existing, nil
	}
	if sess.Income.AnnualIncome.GreaterThan(f.ceiling) {
		f.logger.InfoContext(ctx, "income recheck failed at submission",
			"session_id", sess.ID, "subject", subject, "income", sess.Income.AnnualIncome.String())
		return "", ErrIneligible
	}

	now := requestcontext.Now(ctx)
	appID := NewApplicationID(now)
	beneficiary := toBeneficiary(sess, appID, now)
	documents := toDocuments(sess, appID)

	err = f.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := f.store.SaveBeneficiary(ctx, beneficiary); err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.workers)
		for i := range documents {
			doc := &documents[i]
			g.Go(func() error {
				return f.store.SaveDocument(gctx, doc)
			})
		}
		return g.Wait()
	})
	if errors.Is(err, sentinel.ErrConflict) {
		if appID, done, lookupErr := f.onRecord(ctx, sess, subject); lookupErr == nil && done {
			return appID, nil
		}
		f.logger.InfoContext(ctx, "duplicate application refused at insert", "session_id", sess.ID, "subject", subject)
		return "", ErrAlreadyApplied
	}
	if err != nil {
		return "", f.fail(ctx, span, err, "application persistence failed", subject)
	}

	span.SetAttributes(attribute.String("application_id", appID))
	f.logger.InfoContext(ctx, "application submitted",
		"session_id", sess.ID, "application_id", appID, "subject", subject, "documents", len(documents))
	return appID, nil
}

// onRecord checks for an existing filing. done is true when this session
// already filed; an ErrAlreadyApplied error means another session did.
func (f *Finalizer) onRecord(ctx context.Context, sess *intake.Session, subject string) (string, bool, error) {
	filing, err := f.store.FindByPrimaryID(ctx, sess.Identity.PrimaryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if filing.SessionID == sess.ID {
		f.logger.InfoContext(ctx, "application already filed by this session",
			"session_id", sess.ID, "application_id", filing.ApplicationID, "subject", subject)
		return filing.ApplicationID, true, nil
	}
	f.logger.InfoContext(ctx, "duplicate application refused", "session_id", sess.ID, "subject", subject)
	return "", false, ErrAlreadyApplied
}

func (f *Finalizer) fail(ctx context.Context, span trace.Span, err error, msg, subject string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	f.logger.ErrorContext(ctx, msg, "subject", subject, "error", err)
	return dErrors.Wrap(err, dErrors.CodeInternal, "submission failed")
}

// NewApplicationID returns APP-YYYYMMDD-XXXXXXXX with a random suffix.
func NewApplicationID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("APP-%s-%s", now.Format("20060102"), suffix)
}

func toBeneficiary(sess *intake.Session, appID string, now time.Time) *models.Beneficiary {
	b := &models.Beneficiary{
		ApplicationID:   appID,
		SessionID:       sess.ID,
		PrimaryID:       sess.Identity.PrimaryID,
		SecondaryID:     sess.Identity.SecondaryID,
		FullName:        sess.Personal.Name,
		Gender:          sess.Personal.Gender,
		MaritalStatus:   sess.Personal.MaritalStatus,
		Mobile:          sess.Contact.Mobile,
		Email:           sess.Contact.Email,
		Address:         sess.Contact.Address,
		District:        sess.Domicile.District,
		Taluka:          sess.Domicile.Taluka,
		Village:         sess.Domicile.Village,
		AnnualIncome:    sess.Income.AnnualIncome,
		IncomeSource:    string(sess.Income.Source),
		RationCardColor: sess.Income.RationCardColor,
		BankAccount:     sess.Bank.AccountNumber,
		BankIFSC:        sess.Bank.IFSC,
		BankName:        sess.Bank.BankName,
		SubmittedAt:     now,
	}
	if dob, err := time.Parse(dobLayout, sess.Personal.DateOfBirth); err == nil {
		b.DateOfBirth = &dob
	}
	return b
}

func toDocuments(sess *intake.Session, appID string) []models.DocumentRecord {
	out := make([]models.DocumentRecord, 0, len(sess.Documents))
	for _, d := range sess.Documents {
		out = append(out, models.DocumentRecord{
			ApplicationID: appID,
			Kind:          string(d.Kind),
			Reference:     d.Reference,
			Fields:        d.Fields.Clone(),
			UploadedAt:    d.UploadedAt,
		})
	}
	return out
}

// Package service is the intake state machine. Each inbound message is
// handled under the session's lock: the current step's handler reads the
// input, consults the transition table and returns the reply.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	docmodels "enrollment/internal/document/models"
	"enrollment/internal/intake/messages"
	"enrollment/internal/intake/metrics"
	"enrollment/internal/intake/models"
	dErrors "enrollment/pkg/domain-errors"
	"enrollment/pkg/platform/audit"
	"enrollment/pkg/platform/pii"
	"enrollment/pkg/requestcontext"
)

// Store runs a mutation against one session under its lock and persists
// the result only when fn succeeds.
type Store interface {
	Execute(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
}

// Analyzer reads and validates one uploaded document.
type Analyzer interface {
	Analyze(ctx context.Context, file []byte, kind docmodels.Kind, expectedName, language string) (*docmodels.Result, error)
}

// Linkage answers identity-linkage questions about an applicant.
type Linkage interface {
	IsLinked(ctx context.Context, primaryID, secondaryID string) (bool, error)
	LookupKnownIncome(ctx context.Context, primaryID string) (decimal.Decimal, bool, error)
}

// ObjectStore keeps uploaded files and returns a retrievable reference.
type ObjectStore interface {
	Store(ctx context.Context, data []byte, path string) (string, error)
}

// Finalizer files the application for a completed session.
type Finalizer interface {
	Finalize(ctx context.Context, sess *models.Session) (string, error)
}

// PrefillSource offers identity records captured by an earlier channel.
type PrefillSource interface {
	Lookup(ctx context.Context, sessionID string) (*models.IdentityRecord, bool, error)
}

// IdentityCapture selects how the primary identity number is collected.
type IdentityCapture string

const (
	CaptureDocument IdentityCapture = "document"
	CaptureTyped    IdentityCapture = "typed"
)

// Timeouts bound each collaborator call made while a session is locked.
type Timeouts struct {
	Document time.Duration
	Registry time.Duration
	Storage  time.Duration
	Finalize time.Duration
}

var defaultTimeouts = Timeouts{
	Document: 90 * time.Second,
	Registry: 5 * time.Second,
	Storage:  20 * time.Second,
	Finalize: 20 * time.Second,
}

// DefaultIncomeCeiling is ₹2,50,000.
var DefaultIncomeCeiling = decimal.NewFromInt(250000)

type Machine struct {
	store     Store
	pipeline  Analyzer
	linkage   Linkage
	objects   ObjectStore
	finalizer Finalizer
	catalog   *messages.Catalog
	logger    *slog.Logger

	prefill  PrefillSource
	auditor  audit.Emitter
	hasher   *pii.Hasher
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	capture  IdentityCapture
	ceiling  decimal.Decimal
	timeouts Timeouts
}

type Option func(*Machine)

func WithPrefill(src PrefillSource) Option {
	return func(m *Machine) { m.prefill = src }
}

func WithAudit(emitter audit.Emitter) Option {
	return func(m *Machine) { m.auditor = emitter }
}

func WithHasher(h *pii.Hasher) Option {
	return func(m *Machine) { m.hasher = h }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Machine) { m.metrics = mt }
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Machine) { m.tracer = t }
}

func WithIdentityCapture(c IdentityCapture) Option {
	return func(m *Machine) {
		if c == CaptureTyped || c == CaptureDocument {
			m.capture = c
		}
	}
}

func WithIncomeCeiling(ceiling decimal.Decimal) Option {
	return func(m *Machine) {
		if ceiling.IsPositive() {
			m.ceiling = ceiling
		}
	}
}

// WithTimeouts overrides the non-zero entries of t.
func WithTimeouts(t Timeouts) Option {
	return func(m *Machine) {
		if t.Document > 0 {
			m.timeouts.Document = t.Document
		}
		if t.Registry > 0 {
			m.timeouts.Registry = t.Registry
		}
		if t.Storage > 0 {
			m.timeouts.Storage = t.Storage
		}
		if t.Finalize > 0 {
			m.timeouts.Finalize = t.Finalize
		}
	}
}

func New(store Store, pipeline Analyzer, linkage Linkage, objects ObjectStore, finalizer Finalizer,
	catalog *messages.Catalog, logger *slog.Logger, opts ...Option) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		store:     store,
		pipeline:  pipeline,
		linkage:   linkage,
		objects:   objects,
		finalizer: finalizer,
		catalog:   catalog,
		logger:    logger,
		hasher:    pii.NewHasher(""),
		tracer:    otel.Tracer("enrollment/intake"),
		capture:   CaptureDocument,
		ceiling:   DefaultIncomeCeiling,
		timeouts:  defaultTimeouts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// turn is the working state of one Handle call, built inside the store's
// Execute callback.
type turn struct {
	sess   *models.Session
	input  models.Input
	msg    string
	token  string
	hops   []hop
	events []audit.Event
}

type hop struct {
	from, to models.Step
}

// advance moves the session along the transition table.
func (m *Machine) advance(t *turn, event Event) error {
	to, err := Next(t.sess.Step, event)
	if err != nil {
		return err
	}
	t.hops = append(t.hops, hop{from: t.sess.Step, to: to})
	t.sess.Step = to
	return nil
}

func (m *Machine) record(t *turn, action audit.AuditEvent, decision, reason string) {
	subject := t.sess.Identity.PrimaryID
	if subject == "" && t.sess.PendingIdentity != nil {
		subject = t.sess.PendingIdentity.Fields.Get(docmodels.FieldAadhaarNumber)
	}
	t.events = append(t.events, audit.Event{
		Action:        action,
		SessionID:     t.sess.ID,
		SubjectHash:   m.hasher.Hash(subject),
		ApplicationID: t.sess.ApplicationID,
		Decision:      decision,
		Reason:        reason,
	})
}

// Start opens a fresh session under id and returns the consent prompt.
func (m *Machine) Start(ctx context.Context, id string, lang models.Language) models.Response {
	return m.run(ctx, models.Input{SessionID: id, Language: lang}, func(ctx context.Context, t *turn) (models.Response, error) {
		*t.sess = *models.NewSession(id, requestcontext.Now(ctx))
		if lang != "" {
			t.sess.Language = lang
		}
		m.record(t, audit.EventSessionStarted, "", "")
		return m.prompt(ctx, t, messages.Consent, nil), nil
	})
}

// Handle processes one inbound message. Every failure is turned into a
// Response; nothing is returned to the caller as an error.
func (m *Machine) Handle(ctx context.Context, in models.Input) models.Response {
	return m.run(ctx, in, m.dispatch)
}

// Session returns a copy of the stored session.
func (m *Machine) Session(ctx context.Context, id string) (*models.Session, error) {
	return m.store.Get(ctx, id)
}

type stepFunc func(ctx context.Context, t *turn) (models.Response, error)

func (m *Machine) run(ctx context.Context, in models.Input, step stepFunc) models.Response {
	ctx = requestcontext.WithSessionID(ctx, in.SessionID)
	ctx, span := m.tracer.Start(ctx, "intake.handle",
		trace.WithAttributes(attribute.String("session_id", in.SessionID)))
	defer span.End()
	start := time.Now()

	var (
		resp   models.Response
		last   *turn
		before *position
	)
	_, err := m.store.Execute(ctx, in.SessionID, func(sess *models.Session) error {
		before = &position{step: sess.Step, lang: sess.Language, expecting: m.expecting(sess)}
		if !sess.LanguageLocked && in.Language != "" {
			sess.Language = in.Language
		}
		t := &turn{sess: sess, input: in, msg: trimMessage(in.Message), token: normalizeToken(in.Message)}
		r, err := step(ctx, t)
		if err != nil {
			return err
		}
		resp, last = r, t
		return nil
	})
	if before == nil {
		before = m.lookupPosition(ctx, in)
	}

	span.SetAttributes(attribute.String("step", before.step.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "intake step failed")
		resp = m.failure(ctx, in.SessionID, before, err)
	} else {
		m.commit(ctx, last)
	}

	m.metrics.IncrementMessage(before.step.String(), string(resp.Kind))
	m.metrics.ObserveHandleLatency(before.step.String(), time.Since(start))
	return resp
}

// position is where a session stood before the turn ran.
type position struct {
	step      models.Step
	lang      models.Language
	expecting models.Expecting
}

func (m *Machine) lookupPosition(ctx context.Context, in models.Input) *position {
	if sess, err := m.store.Get(ctx, in.SessionID); err == nil {
		return &position{step: sess.Step, lang: sess.Language, expecting: m.expecting(sess)}
	}
	lang := in.Language
	if lang == "" {
		lang = models.LanguageEnglish
	}
	return &position{step: models.StepConsent, lang: lang, expecting: models.ExpectConsent}
}

// commit publishes what a successful turn produced.
func (m *Machine) commit(ctx context.Context, t *turn) {
	for _, h := range t.hops {
		m.metrics.IncrementTransition(h.from.String(), h.to.String())
		m.logger.InfoContext(ctx, "intake step changed", "session_id", t.sess.ID, "from", h.from.String(), "to", h.to.String())
	}
	if len(t.hops) > 0 {
		if outcome, ok := outcomeOf(t); ok {
			m.metrics.IncrementOutcome(outcome)
		}
	}
	if m.auditor == nil {
		return
	}
	now := requestcontext.Now(ctx)
	for _, ev := range t.events {
		ev.RequestID = requestcontext.RequestID(ctx)
		ev.Channel = string(requestcontext.ClientChannel(ctx))
		if err := m.auditor.Emit(ctx, ev.Normalize(now)); err != nil {
			m.logger.ErrorContext(ctx, "failed to emit audit event", "session_id", t.sess.ID, "action", ev.Action, "error", err)
		}
	}
}

func outcomeOf(t *turn) (string, bool) {
	switch t.sess.Step {
	case models.StepCompleted:
		if t.sess.ApplicationID == "" {
			return "duplicate", true
		}
		return "completed", true
	case models.StepDeclined:
		return "declined", true
	case models.StepIneligible:
		return "ineligible", true
	case models.StepExited:
		return "exited", true
	}
	return "", false
}

// failure renders a collaborator or internal error. The session was not
// written, so the step the user sees is the one they were already on.
func (m *Machine) failure(ctx context.Context, sessionID string, at *position, err error) models.Response {
	code := dErrors.CodeOf(err)
	if errors.Is(err, context.DeadlineExceeded) {
		code = dErrors.CodeTimeout
	}
	m.logger.ErrorContext(ctx, "intake step failed",
		"session_id", sessionID, "step", at.step.String(), "code", string(code), "error", err)

	return models.Response{
		Text:      m.catalog.Text(ctx, at.lang, messages.TryAgain, nil),
		Kind:      models.ResponseError,
		Expecting: at.expecting,
		Step:      at.step,
	}
}

func (m *Machine) dispatch(ctx context.Context, t *turn) (models.Response, error) {
	if has(restartTokens, t.token) {
		return m.restart(ctx, t)
	}

	switch t.sess.Step {
	case models.StepConsent:
		return m.handleConsent(ctx, t)
	case models.StepUploadPrimaryID, models.StepVerifyPrimaryID:
		return m.handlePrimaryID(ctx, t)
	case models.StepConfirmPrimaryID:
		return m.handleConfirm(ctx, t)
	case models.StepCorrectPrimaryID:
		return m.handleCorrection(ctx, t)
	case models.StepUploadSecondaryID:
		return m.handleSecondaryID(ctx, t)
	case models.StepCollectMobile:
		return m.handleMobile(ctx, t)
	case models.StepCollectEmail:
		return m.handleEmail(ctx, t)
	case models.StepCollectMaritalStatus:
		return m.handleMaritalStatus(ctx, t)
	case models.StepSelectDomicileProof:
		return m.handleDomicileChoice(ctx, t)
	case models.StepUploadDomicileProof:
		return m.handleDomicileUpload(ctx, t)
	case models.StepSelectRationColor:
		return m.handleRationColor(ctx, t)
	case models.StepUploadIncomeProof:
		return m.handleIncomeUpload(ctx, t)
	case models.StepUploadBankProof:
		return m.handleBankUpload(ctx, t)
	case models.StepUploadPhotograph:
		return m.handlePhotograph(ctx, t)
	case models.StepFinalReview:
		return m.handleReview(ctx, t)
	case models.StepDeclaration:
		return m.handleDeclaration(ctx, t)
	case models.StepSubmit:
		return m.handleSubmit(ctx, t)
	case models.StepCompleted:
		return m.handleCompleted(ctx, t)
	case models.StepDeclined, models.StepIneligible, models.StepExited:
		return m.reply(ctx, t, models.ResponseTerminal, messages.SessionEnded, nil), nil
	}
	return models.Response{}, dErrors.New(dErrors.CodeInvariantViolation, "unknown step "+t.sess.Step.String())
}

// restart replaces the session with a fresh one under the same id, keeping
// only the locked language.
func (m *Machine) restart(ctx context.Context, t *turn) (models.Response, error) {
	lang, locked := t.sess.Language, t.sess.LanguageLocked
	from := t.sess.Step
	if err := m.advance(t, EventRestart); err != nil {
		return models.Response{}, err
	}
	*t.sess = *models.NewSession(t.sess.ID, requestcontext.Now(ctx))
	if locked {
		t.sess.Language, t.sess.LanguageLocked = lang, true
	}
	m.record(t, audit.EventSessionRestarted, "", from.String())
	return m.prompt(ctx, t, messages.Consent, nil), nil
}

// expecting derives the next expected input from the session.
func (m *Machine) expecting(sess *models.Session) models.Expecting {
	awaiting := sess.Flags.AwaitingIncomeAction
	switch sess.Step {
	case models.StepConsent:
		return models.ExpectConsent
	case models.StepUploadPrimaryID, models.StepVerifyPrimaryID:
		if m.capture == CaptureTyped {
			return models.ExpectPrimaryIDNumber
		}
		return models.ExpectUpload(docmodels.KindAadhaar)
	case models.StepConfirmPrimaryID:
		return models.ExpectConfirmation
	case models.StepCorrectPrimaryID:
		if sess.PendingCorrection != "" {
			return models.ExpectCorrectionValue
		}
		return models.ExpectCorrectionField
	case models.StepUploadSecondaryID:
		return models.ExpectUpload(docmodels.KindPANCard)
	case models.StepCollectMobile:
		return models.ExpectMobile
	case models.StepCollectEmail:
		return models.ExpectEmail
	case models.StepCollectMaritalStatus:
		return models.ExpectMaritalStatus
	case models.StepSelectDomicileProof:
		return models.ExpectDomicileChoice
	case models.StepUploadDomicileProof:
		return models.ExpectUpload(sess.Domicile.ProofKind)
	case models.StepSelectRationColor:
		if awaiting {
			return models.ExpectIncomeAction
		}
		return models.ExpectRationColor
	case models.StepUploadIncomeProof:
		if awaiting {
			return models.ExpectIncomeAction
		}
		return models.ExpectUpload(docmodels.KindIncomeCertificate)
	case models.StepUploadBankProof:
		return models.ExpectUpload(docmodels.KindBankPassbook)
	case models.StepUploadPhotograph:
		return models.ExpectUpload(docmodels.KindPhotograph)
	case models.StepFinalReview:
		return models.ExpectReview
	case models.StepDeclaration:
		return models.ExpectDeclaration
	case models.StepSubmit:
		return models.ExpectSubmit
	}
	return models.ExpectRestart
}

func (m *Machine) text(ctx context.Context, t *turn, id messages.ID, vars messages.Vars) string {
	return m.catalog.Text(ctx, t.sess.Language, id, vars)
}

func (m *Machine) reply(ctx context.Context, t *turn, kind models.ResponseKind, id messages.ID, vars messages.Vars) models.Response {
	return m.replyText(t, kind, m.text(ctx, t, id, vars))
}

func (m *Machine) replyText(t *turn, kind models.ResponseKind, text string) models.Response {
	return models.Response{
		Text:          text,
		Kind:          kind,
		Expecting:     m.expecting(t.sess),
		Step:          t.sess.Step,
		ApplicationID: t.sess.ApplicationID,
	}
}

func (m *Machine) prompt(ctx context.Context, t *turn, id messages.ID, vars messages.Vars) models.Response {
	return m.reply(ctx, t, models.ResponsePrompt, id, vars)
}

func (m *Machine) reject(ctx context.Context, t *turn, id messages.ID, vars messages.Vars) models.Response {
	return m.reply(ctx, t, models.ResponseRejection, id, vars)
}

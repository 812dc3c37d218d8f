package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"enrollment/internal/document/income"
	docmodels "enrollment/internal/document/models"
	"enrollment/internal/intake/messages"
	"enrollment/internal/intake/models"
	"enrollment/pkg/platform/audit"
)

func (m *Machine) incomeVars(v decimal.Decimal) messages.Vars {
	return messages.Vars{"income": income.FormatINR(v), "ceiling": income.FormatINR(m.ceiling)}
}

func (m *Machine) handleMobile(ctx context.Context, t *turn) (models.Response, error) {
	if t.msg == "" {
		return m.prompt(ctx, t, messages.MobilePrompt, nil), nil
	}
	mobile := strings.ReplaceAll(t.msg, " ", "")
	mobile = strings.TrimPrefix(mobile, "+91")
	if !mobilePattern.MatchString(mobile) {
		return m.reject(ctx, t, messages.InvalidMobile, nil), nil
	}
	t.sess.Contact.Mobile = mobile
	if err := m.advance(t, EventInputAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.EmailPrompt, nil), nil
}

func (m *Machine) handleEmail(ctx context.Context, t *turn) (models.Response, error) {
	if t.msg == "" {
		return m.prompt(ctx, t, messages.EmailPrompt, nil), nil
	}
	switch {
	case has(skipTokens, t.token):
		t.sess.Contact.Email = ""
	case emailPattern.MatchString(t.msg):
		t.sess.Contact.Email = t.msg
	default:
		return m.reject(ctx, t, messages.InvalidEmail, nil), nil
	}
	if err := m.advance(t, EventInputAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.MaritalPrompt, nil), nil
}

func (m *Machine) handleMaritalStatus(ctx context.Context, t *turn) (models.Response, error) {
	if t.token == "" {
		return m.prompt(ctx, t, messages.MaritalPrompt, nil), nil
	}
	status, ok := parseMaritalStatus(t.token)
	if !ok {
		return withPrompt(m.reject(ctx, t, messages.InvalidOption, nil), m.text(ctx, t, messages.MaritalPrompt, nil)), nil
	}
	t.sess.Personal.MaritalStatus = status
	if err := m.advance(t, EventInputAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.DomicilePrompt, nil), nil
}

func (m *Machine) handleDomicileChoice(ctx context.Context, t *turn) (models.Response, error) {
	if t.token == "" {
		return m.prompt(ctx, t, messages.DomicilePrompt, nil), nil
	}
	kind, ok := parseDomicileProof(t.token)
	if !ok {
		return withPrompt(m.reject(ctx, t, messages.InvalidOption, nil), m.text(ctx, t, messages.DomicilePrompt, nil)), nil
	}
	t.sess.Domicile.ProofKind = kind
	if err := m.advance(t, EventInputAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.DomicileUpload, messages.Vars{"doc": kind.Label()}), nil
}

func (m *Machine) handleDomicileUpload(ctx context.Context, t *turn) (models.Response, error) {
	kind := t.sess.Domicile.ProofKind
	if len(t.input.File) == 0 {
		return m.prompt(ctx, t, messages.UploadPrompt, messages.Vars{"doc": kind.Label()}), nil
	}
	result, refused, err := m.analyze(ctx, t, kind)
	if err != nil {
		return models.Response{}, err
	}
	if refused != nil {
		return *refused, nil
	}
	if r := m.keep(ctx, t, kind, t.input.File, result.Fields); r != nil {
		return *r, nil
	}

	f := result.Fields
	t.sess.Domicile.CertificateNumber = firstNonEmpty(
		f.Get(docmodels.FieldCertificateNumber),
		f.Get(docmodels.FieldCardNumber),
		f.Get(docmodels.FieldVoterIDNumber),
		f.Get(docmodels.FieldRegistrationNo),
	)
	t.sess.Domicile.District = f.Get(docmodels.FieldDistrict)
	t.sess.Domicile.Taluka = f.Get(docmodels.FieldTaluka)
	t.sess.Domicile.Village = f.Get(docmodels.FieldVillage)

	if kind == docmodels.KindRationCard {
		if err := m.advance(t, EventRationCardAccepted); err != nil {
			return models.Response{}, err
		}
		return m.prompt(ctx, t, messages.RationColorPrompt, nil), nil
	}
	if err := m.advance(t, EventDocumentAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.DocumentAccepted, messages.Vars{
		"doc":  capitalize(kind.Label()),
		"next": m.text(ctx, t, messages.UploadPrompt, messages.Vars{"doc": docmodels.KindIncomeCertificate.Label()}),
	}), nil
}

// handleRationColor decides whether the ration card already establishes
// income. A subsidized card whose income breaches the ceiling holds the
// step until the applicant switches to an income certificate or leaves.
func (m *Machine) handleRationColor(ctx context.Context, t *turn) (models.Response, error) {
	awaiting := t.sess.Flags.AwaitingIncomeAction
	if awaiting && has(exitTokens, t.token) {
		return m.exit(ctx, t)
	}
	if t.token == "" {
		if awaiting {
			return m.prompt(ctx, t, messages.RationIncomeRetry, nil), nil
		}
		return m.prompt(ctx, t, messages.RationColorPrompt, nil), nil
	}
	color, ok := parseRationColor(t.token)
	if !ok {
		retry := messages.RationColorPrompt
		if awaiting {
			retry = messages.RationIncomeRetry
		}
		return withPrompt(m.reject(ctx, t, messages.InvalidOption, nil), m.text(ctx, t, retry, nil)), nil
	}

	t.sess.Income.RationCardColor = color
	if color == colorWhite {
		t.sess.Income = models.Income{RationCardColor: color}
		t.sess.Flags.AwaitingIncomeAction = false
		if err := m.advance(t, EventIncomeRequired); err != nil {
			return models.Response{}, err
		}
		return m.prompt(ctx, t, messages.RationWhite, nil), nil
	}

	var raw string
	if doc, ok := t.sess.Document(docmodels.KindRationCard); ok {
		raw = doc.Fields.Get(docmodels.FieldAnnualIncome)
	}
	amount := income.Normalize(raw, "")
	t.sess.Income = models.Income{
		AnnualIncome:    amount,
		Known:           !amount.IsZero(),
		Source:          models.IncomeSourceRationCard,
		RationCardColor: color,
	}
	if amount.GreaterThan(m.ceiling) {
		t.sess.Flags.AwaitingIncomeAction = true
		m.record(t, audit.EventDocumentRejected, "rejected", "ration_income_exceeds_ceiling")
		return withPrompt(
			m.reject(ctx, t, messages.IncomeExceeds, m.incomeVars(amount)),
			m.text(ctx, t, messages.RationIncomeRetry, nil),
		), nil
	}

	t.sess.Flags.AwaitingIncomeAction = false
	if err := m.advance(t, EventIncomeKnown); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.RationSubsidized, messages.Vars{"color": strings.ToLower(color)}), nil
}

func (m *Machine) handleIncomeUpload(ctx context.Context, t *turn) (models.Response, error) {
	awaiting := t.sess.Flags.AwaitingIncomeAction
	if awaiting && has(exitTokens, t.token) {
		return m.exit(ctx, t)
	}
	if len(t.input.File) == 0 {
		if awaiting {
			return m.prompt(ctx, t, messages.IncomeRetry, nil), nil
		}
		return m.prompt(ctx, t, messages.UploadPrompt, messages.Vars{"doc": docmodels.KindIncomeCertificate.Label()}), nil
	}

	result, refused, err := m.analyze(ctx, t, docmodels.KindIncomeCertificate)
	if err != nil {
		return models.Response{}, err
	}
	if refused != nil {
		if awaiting {
			return withPrompt(*refused, m.text(ctx, t, messages.IncomeRetry, nil)), nil
		}
		return *refused, nil
	}

	f := result.Fields
	amount := income.Normalize(f.Get(docmodels.FieldAnnualIncome), result.RawText)
	if amount.IsZero() {
		m.record(t, audit.EventDocumentRejected, "rejected", "income_not_found")
		return m.reject(ctx, t, messages.IncomeNotFound, nil), nil
	}

	t.sess.Income.AnnualIncome = amount
	t.sess.Income.Known = true
	t.sess.Income.Source = models.IncomeSourceCertificate
	t.sess.Income.CertificateNumber = f.Get(docmodels.FieldCertificateNumber)
	t.sess.Income.IssueDate = f.Get(docmodels.FieldIssueDate)

	if amount.GreaterThan(m.ceiling) {
		t.sess.Flags.AwaitingIncomeAction = true
		m.logger.InfoContext(ctx, "income above ceiling",
			"session_id", t.sess.ID, "income", amount.String(), "ceiling", m.ceiling.String())
		m.record(t, audit.EventDocumentRejected, "rejected", "income_exceeds_ceiling")
		return withPrompt(
			m.reject(ctx, t, messages.IncomeExceeds, m.incomeVars(amount)),
			m.text(ctx, t, messages.IncomeRetry, nil),
		), nil
	}

	if r := m.keep(ctx, t, docmodels.KindIncomeCertificate, t.input.File, f); r != nil {
		return *r, nil
	}
	t.sess.Flags.AwaitingIncomeAction = false
	if err := m.advance(t, EventDocumentAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.IncomeAccepted, messages.Vars{"income": income.FormatINR(amount)}), nil
}

func (m *Machine) exit(ctx context.Context, t *turn) (models.Response, error) {
	m.record(t, audit.EventApplicantExited, "exited", "income_exceeds_ceiling")
	if err := m.advance(t, EventExit); err != nil {
		return models.Response{}, err
	}
	t.sess.Flags.AwaitingIncomeAction = false
	return m.reply(ctx, t, models.ResponseTerminal, messages.Exited, nil), nil
}

func (m *Machine) handleBankUpload(ctx context.Context, t *turn) (models.Response, error) {
	kind := docmodels.KindBankPassbook
	if len(t.input.File) == 0 {
		return m.prompt(ctx, t, messages.UploadPrompt, messages.Vars{"doc": kind.Label()}), nil
	}
	result, refused, err := m.analyze(ctx, t, kind)
	if err != nil {
		return models.Response{}, err
	}
	if refused != nil {
		return *refused, nil
	}
	if r := m.keep(ctx, t, kind, t.input.File, result.Fields); r != nil {
		return *r, nil
	}

	f := result.Fields
	t.sess.Bank = models.Bank{
		AccountNumber: f.Get(docmodels.FieldAccountNumber),
		IFSC:          f.Get(docmodels.FieldIFSC),
		BankName:      f.Get(docmodels.FieldBankName),
		HolderName:    f.Get(docmodels.FieldAccountHolderName),
	}
	if err := m.advance(t, EventDocumentAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.DocumentAccepted, messages.Vars{
		"doc":  capitalize(kind.Label()),
		"next": m.text(ctx, t, messages.UploadPrompt, messages.Vars{"doc": docmodels.KindPhotograph.Label()}),
	}), nil
}

func (m *Machine) handlePhotograph(ctx context.Context, t *turn) (models.Response, error) {
	kind := docmodels.KindPhotograph
	if len(t.input.File) == 0 {
		return m.prompt(ctx, t, messages.UploadPrompt, messages.Vars{"doc": kind.Label()}), nil
	}
	result, refused, err := m.analyze(ctx, t, kind)
	if err != nil {
		return models.Response{}, err
	}
	if refused != nil {
		return *refused, nil
	}
	if r := m.keep(ctx, t, kind, t.input.File, result.Fields); r != nil {
		return *r, nil
	}
	if err := m.advance(t, EventDocumentAccepted); err != nil {
		return models.Response{}, err
	}
	return m.reviewPrompt(ctx, t), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

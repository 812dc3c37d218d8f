package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	docmodels "enrollment/internal/document/models"
	"enrollment/internal/intake/messages"
	"enrollment/internal/intake/models"
	"enrollment/pkg/platform/audit"
	"enrollment/pkg/requestcontext"
)

func (m *Machine) handleConsent(ctx context.Context, t *turn) (models.Response, error) {
	if t.token == "" {
		return m.prompt(ctx, t, messages.Consent, nil), nil
	}

	if lang, ok := yesTokens[t.token]; ok {
		if lang != "" {
			t.sess.Language = lang
		}
		t.sess.LanguageLocked = true
		t.sess.Flags.ConsentAccepted = true

		if rec := m.lookupPrefill(ctx, t.sess.ID); rec != nil {
			applyIdentityRecord(t.sess, rec, requestcontext.Now(ctx))
			m.record(t, audit.EventConsentGranted, "granted", "prefilled")
			if err := m.advance(t, EventConsentPrefilled); err != nil {
				return models.Response{}, err
			}
			return m.prompt(ctx, t, messages.IdentityPrefilled, messages.Vars{
				"name": t.sess.Personal.Name,
				"dob":  t.sess.Personal.DateOfBirth,
			}), nil
		}

		m.record(t, audit.EventConsentGranted, "granted", "")
		if err := m.advance(t, EventConsentAccepted); err != nil {
			return models.Response{}, err
		}
		if m.capture == CaptureTyped {
			return m.prompt(ctx, t, messages.TypePrimaryID, nil), nil
		}
		return m.prompt(ctx, t, messages.UploadPrimaryID, nil), nil
	}

	if has(noTokens, t.token) {
		m.record(t, audit.EventConsentDeclined, "declined", "")
		if err := m.advance(t, EventConsentDeclined); err != nil {
			return models.Response{}, err
		}
		return m.reply(ctx, t, models.ResponseTerminal, messages.ConsentDeclined, nil), nil
	}

	return m.reject(ctx, t, messages.ConsentReprompt, nil), nil
}

// lookupPrefill returns a usable pre-fill record or nil. A failing source
// only costs the applicant the shortcut.
func (m *Machine) lookupPrefill(ctx context.Context, sessionID string) *models.IdentityRecord {
	if m.prefill == nil {
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, m.timeouts.Registry)
	defer cancel()
	rec, ok, err := m.prefill.Lookup(pctx, sessionID)
	if err != nil {
		m.logger.WarnContext(ctx, "identity prefill lookup failed", "session_id", sessionID, "error", err)
		return nil
	}
	if !ok || !primaryIDPattern.MatchString(digitsOnly(rec.PrimaryID)) {
		return nil
	}
	return rec
}

func applyIdentityRecord(sess *models.Session, rec *models.IdentityRecord, now time.Time) {
	sess.Identity.PrimaryID = digitsOnly(rec.PrimaryID)
	sess.Personal.Name = rec.Name
	sess.Personal.DateOfBirth = rec.DateOfBirth
	sess.Personal.Age = ageOn(rec.DateOfBirth, now)
	sess.Personal.Gender = rec.Gender
	sess.Contact.Address = rec.Address
	sess.Flags.IdentityPrefilled = true
}

func (m *Machine) handlePrimaryID(ctx context.Context, t *turn) (models.Response, error) {
	if m.capture == CaptureTyped {
		return m.handleTypedPrimaryID(ctx, t)
	}
	if len(t.input.File) == 0 {
		return m.prompt(ctx, t, messages.UploadPrimaryID, nil), nil
	}
	if r := m.checkUpload(ctx, t, docmodels.KindAadhaar); r != nil {
		return *r, nil
	}

	if err := m.advance(t, EventFileReceived); err != nil {
		return models.Response{}, err
	}
	result, refused, err := m.analyze(ctx, t, docmodels.KindAadhaar)
	if err != nil {
		return models.Response{}, err
	}
	if refused == nil && !primaryIDPattern.MatchString(result.Fields.Get(docmodels.FieldAadhaarNumber)) {
		m.record(t, audit.EventDocumentRejected, "rejected", "primary_id_missing")
		r := m.reject(ctx, t, messages.PrimaryIDNotFound, nil)
		refused = &r
	}
	if refused != nil {
		if err := m.advance(t, EventDocumentRejected); err != nil {
			return models.Response{}, err
		}
		refused.Step, refused.Expecting = t.sess.Step, m.expecting(t.sess)
		return withPrompt(*refused, m.text(ctx, t, messages.UploadPrimaryID, nil)), nil
	}

	t.sess.PendingIdentity = &models.PendingIdentity{
		Fields:   result.Fields.Clone(),
		Document: append([]byte(nil), t.input.File...),
	}
	t.sess.PendingCorrection = ""
	if err := m.advance(t, EventIdentityExtracted); err != nil {
		return models.Response{}, err
	}
	return m.confirmPrompt(ctx, t), nil
}

func (m *Machine) handleTypedPrimaryID(ctx context.Context, t *turn) (models.Response, error) {
	if t.msg == "" {
		return m.prompt(ctx, t, messages.TypePrimaryID, nil), nil
	}
	number := digitsOnly(t.msg)
	if !primaryIDPattern.MatchString(number) {
		return m.reject(ctx, t, messages.InvalidPrimaryID, nil), nil
	}
	t.sess.PendingIdentity = &models.PendingIdentity{
		Fields: docmodels.Fields{docmodels.FieldAadhaarNumber: number},
	}
	t.sess.PendingCorrection = ""
	if err := m.advance(t, EventIdentityExtracted); err != nil {
		return models.Response{}, err
	}
	return m.confirmPrompt(ctx, t), nil
}

func (m *Machine) confirmPrompt(ctx context.Context, t *turn) models.Response {
	f := t.sess.PendingIdentity.Fields
	return m.prompt(ctx, t, messages.ConfirmIdentity, messages.Vars{
		"aadhaar": maskPrimaryID(f.Get(docmodels.FieldAadhaarNumber)),
		"name":    orNA(f.Get(docmodels.FieldName)),
		"dob":     orNA(f.Get(docmodels.FieldDOB)),
		"address": orNA(f.Get(docmodels.FieldAddress)),
	})
}

func (m *Machine) handleConfirm(ctx context.Context, t *turn) (models.Response, error) {
	pending := t.sess.PendingIdentity
	if pending == nil {
		return models.Response{}, fmt.Errorf("confirm step without pending identity")
	}
	if t.token == "" {
		return m.confirmPrompt(ctx, t), nil
	}

	if _, ok := yesTokens[t.token]; ok {
		// Later documents are matched against this name, so it is never
		// committed empty.
		if strings.TrimSpace(pending.Fields.Get(docmodels.FieldName)) == "" {
			t.sess.PendingCorrection = docmodels.FieldName
			if err := m.advance(t, EventCorrectionRequested); err != nil {
				return models.Response{}, err
			}
			return m.prompt(ctx, t, messages.NameRequired, nil), nil
		}
		if pending.Document != nil {
			if r := m.keep(ctx, t, docmodels.KindAadhaar, pending.Document, pending.Fields); r != nil {
				return *r, nil
			}
		}
		commitIdentity(t.sess, pending.Fields, requestcontext.Now(ctx))
		if err := m.advance(t, EventIdentityConfirmed); err != nil {
			return models.Response{}, err
		}
		return m.prompt(ctx, t, messages.UploadSecondaryID, nil), nil
	}

	if has(correctionTokens, t.token) {
		t.sess.PendingCorrection = ""
		if err := m.advance(t, EventCorrectionRequested); err != nil {
			return models.Response{}, err
		}
		return m.prompt(ctx, t, messages.CorrectionField, nil), nil
	}

	return m.reject(ctx, t, messages.ConfirmReprompt, nil), nil
}

// commitIdentity copies every pending field into the session at once.
func commitIdentity(sess *models.Session, f docmodels.Fields, now time.Time) {
	sess.Identity.PrimaryID = digitsOnly(f.Get(docmodels.FieldAadhaarNumber))
	sess.Personal.Name = f.Get(docmodels.FieldName)
	sess.Personal.DateOfBirth = f.Get(docmodels.FieldDOB)
	sess.Personal.Age = ageOn(sess.Personal.DateOfBirth, now)
	sess.Personal.Gender = f.Get(docmodels.FieldGender)
	sess.Contact.Address = f.Get(docmodels.FieldAddress)
	sess.PendingIdentity = nil
	sess.PendingCorrection = ""
}

func (m *Machine) handleCorrection(ctx context.Context, t *turn) (models.Response, error) {
	pending := t.sess.PendingIdentity
	if pending == nil {
		return models.Response{}, fmt.Errorf("correction step without pending identity")
	}

	if t.sess.PendingCorrection == "" {
		field, label, ok := parseCorrectionField(t.token)
		if !ok {
			if t.token == "" {
				return m.prompt(ctx, t, messages.CorrectionField, nil), nil
			}
			return m.reject(ctx, t, messages.CorrectionField, nil), nil
		}
		t.sess.PendingCorrection = field
		return m.prompt(ctx, t, messages.CorrectionValue, messages.Vars{"field": label}), nil
	}

	field := t.sess.PendingCorrection
	if t.msg == "" {
		return m.prompt(ctx, t, messages.CorrectionValue, messages.Vars{"field": correctionLabel(field)}), nil
	}
	value := strings.Join(strings.Fields(t.msg), " ")
	if field == docmodels.FieldDOB {
		if _, err := time.Parse(dateLayout, value); err != nil {
			return m.reject(ctx, t, messages.InvalidDate, nil), nil
		}
	}
	if pending.Fields == nil {
		pending.Fields = docmodels.Fields{}
	}
	pending.Fields[field] = value
	t.sess.PendingCorrection = ""
	if err := m.advance(t, EventCorrectionApplied); err != nil {
		return models.Response{}, err
	}
	return m.confirmPrompt(ctx, t), nil
}

func (m *Machine) handleSecondaryID(ctx context.Context, t *turn) (models.Response, error) {
	if len(t.input.File) == 0 {
		return m.prompt(ctx, t, messages.UploadSecondaryID, nil), nil
	}
	result, refused, err := m.analyze(ctx, t, docmodels.KindPANCard)
	if err != nil {
		return models.Response{}, err
	}
	if refused != nil {
		return *refused, nil
	}

	pan := strings.ToUpper(strings.ReplaceAll(result.Fields.Get(docmodels.FieldPANNumber), " ", ""))
	if !secondaryIDPattern.MatchString(pan) {
		m.record(t, audit.EventDocumentRejected, "rejected", string(docmodels.ReasonWrongKind))
		return m.reject(ctx, t, messages.InvalidSecondaryID, nil), nil
	}
	if r := m.keep(ctx, t, docmodels.KindPANCard, t.input.File, result.Fields); r != nil {
		return *r, nil
	}
	t.sess.Identity.SecondaryID = pan

	lctx, cancel := context.WithTimeout(ctx, m.timeouts.Registry)
	defer cancel()
	linked, err := m.linkage.IsLinked(lctx, t.sess.Identity.PrimaryID, pan)
	if err != nil {
		return models.Response{}, fmt.Errorf("linkage check: %w", err)
	}
	if !linked {
		m.record(t, audit.EventApplicantIneligible, "ineligible", "identity_not_linked")
		if err := m.advance(t, EventNotLinked); err != nil {
			return models.Response{}, err
		}
		return m.reply(ctx, t, models.ResponseTerminal, messages.NotLinked, nil), nil
	}

	known, found, err := m.linkage.LookupKnownIncome(lctx, t.sess.Identity.PrimaryID)
	if err != nil {
		return models.Response{}, fmt.Errorf("known income lookup: %w", err)
	}
	if found {
		t.sess.Income.AnnualIncome = known
		t.sess.Income.Known = true
		t.sess.Income.Source = models.IncomeSourceRegistry
		if known.GreaterThan(m.ceiling) {
			m.record(t, audit.EventApplicantIneligible, "ineligible", "registry_income_exceeds_ceiling")
			if err := m.advance(t, EventIncomeExceeded); err != nil {
				return models.Response{}, err
			}
			return m.reply(ctx, t, models.ResponseTerminal, messages.IncomeIneligible, m.incomeVars(known)), nil
		}
	}

	if err := m.advance(t, EventDocumentAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.LinkedMobilePrompt, nil), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	appservice "enrollment/internal/application/service"
	"enrollment/internal/document/income"
	"enrollment/internal/intake/messages"
	"enrollment/internal/intake/models"
	"enrollment/pkg/platform/audit"
)

// The review and declaration gates take only the full word or phrase the
// prompt asks for, in English or its regional equivalent.
var (
	reviewYesTokens = set("yes", "होय", "हां", "हाँ")
	reviewNoTokens  = set("no", "नाही", "नहीं")
	agreeTokens     = set("i agree", "मी सहमत आहे", "मैं सहमत हूं")
)

func (m *Machine) handleReview(ctx context.Context, t *turn) (models.Response, error) {
	switch {
	case t.token == "":
		return m.reviewPrompt(ctx, t), nil
	case has(reviewYesTokens, t.token):
		if err := m.advance(t, EventInputAccepted); err != nil {
			return models.Response{}, err
		}
		return m.prompt(ctx, t, messages.Declaration, nil), nil
	case has(reviewNoTokens, t.token):
		return m.prompt(ctx, t, messages.ReviewEdit, nil), nil
	}
	return m.reject(ctx, t, messages.ReviewReprompt, nil), nil
}

func (m *Machine) handleDeclaration(ctx context.Context, t *turn) (models.Response, error) {
	if t.token == "" {
		return m.prompt(ctx, t, messages.Declaration, nil), nil
	}
	if !has(agreeTokens, t.token) {
		return m.reject(ctx, t, messages.DeclarationReprompt, nil), nil
	}
	t.sess.Flags.DeclarationAccepted = true
	if err := m.advance(t, EventInputAccepted); err != nil {
		return models.Response{}, err
	}
	return m.prompt(ctx, t, messages.DeclarationAccepted, nil), nil
}

// handleSubmit files the application. A failed filing leaves the session on
// submit so the applicant can send SUBMIT again.
func (m *Machine) handleSubmit(ctx context.Context, t *turn) (models.Response, error) {
	if t.token != "submit" || !t.sess.Flags.DeclarationAccepted {
		return m.reject(ctx, t, messages.SubmitReprompt, nil), nil
	}

	fctx, cancel := context.WithTimeout(ctx, m.timeouts.Finalize)
	defer cancel()
	appID, err := m.finalizer.Finalize(fctx, t.sess)
	switch {
	case errors.Is(err, appservice.ErrAlreadyApplied):
		m.record(t, audit.EventDuplicateApplication, "rejected", "already_applied")
		if err := m.advance(t, EventDuplicate); err != nil {
			return models.Response{}, err
		}
		return m.reply(ctx, t, models.ResponseTerminal, messages.AlreadyApplied, nil), nil

	case errors.Is(err, appservice.ErrIneligible):
		m.record(t, audit.EventApplicantIneligible, "ineligible", "income_exceeds_ceiling")
		if err := m.advance(t, EventIncomeExceeded); err != nil {
			return models.Response{}, err
		}
		return m.reply(ctx, t, models.ResponseTerminal, messages.IncomeIneligible, m.incomeVars(t.sess.Income.AnnualIncome)), nil

	case err != nil:
		m.logger.ErrorContext(ctx, "application submission failed", "session_id", t.sess.ID, "error", err)
		return m.reply(ctx, t, models.ResponseError, messages.SubmissionFailed, nil), nil
	}

	t.sess.ApplicationID = appID
	m.record(t, audit.EventApplicationSubmitted, "submitted", "")
	if err := m.advance(t, EventSubmitted); err != nil {
		return models.Response{}, err
	}
	return m.reply(ctx, t, models.ResponseCompleted, messages.Submitted, messages.Vars{
		"name":   t.sess.Personal.Name,
		"app_id": appID,
		"mobile": t.sess.Contact.Mobile,
	}), nil
}

func (m *Machine) handleCompleted(ctx context.Context, t *turn) (models.Response, error) {
	if t.sess.ApplicationID == "" {
		return m.reply(ctx, t, models.ResponseTerminal, messages.SessionEnded, nil), nil
	}
	return m.reply(ctx, t, models.ResponseCompleted, messages.CompletedIdempotent,
		messages.Vars{"app_id": t.sess.ApplicationID}), nil
}

func (m *Machine) reviewPrompt(ctx context.Context, t *turn) models.Response {
	s := t.sess
	age := ""
	if s.Personal.Age > 0 {
		age = strconv.Itoa(s.Personal.Age)
	}
	ration := "N/A"
	if s.Income.RationCardColor != "" {
		ration = s.Income.RationCardColor
	}
	docs := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		docs = append(docs, d.Kind.Label())
	}
	return m.prompt(ctx, t, messages.FinalReview, messages.Vars{
		"name":      orNA(s.Personal.Name),
		"dob":       orNA(s.Personal.DateOfBirth),
		"age":       orNA(age),
		"aadhaar":   maskPrimaryID(s.Identity.PrimaryID),
		"pan":       orNA(s.Identity.SecondaryID),
		"marital":   orNA(s.Personal.MaritalStatus),
		"mobile":    orNA(s.Contact.Mobile),
		"email":     orNA(s.Contact.Email),
		"address":   orNA(s.Contact.Address),
		"account":   orNA(maskTail(s.Bank.AccountNumber)),
		"ifsc":      orNA(s.Bank.IFSC),
		"bank":      orNA(s.Bank.BankName),
		"income":    income.FormatINR(s.Income.AnnualIncome),
		"ration":    ration,
		"documents": orNA(strings.Join(docs, ", ")),
	})
}

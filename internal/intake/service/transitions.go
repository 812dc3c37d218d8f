package service

import (
	"fmt"

	"enrollment/internal/intake/models"
	dErrors "enrollment/pkg/domain-errors"
)

// Event is something a step handler observed that may move the flow.
type Event int

const (
	EventConsentAccepted Event = iota
	EventConsentPrefilled
	EventConsentDeclined
	EventFileReceived
	EventIdentityExtracted
	EventDocumentRejected
	EventIdentityConfirmed
	EventCorrectionRequested
	EventCorrectionApplied
	EventDocumentAccepted
	EventNotLinked
	EventIncomeExceeded
	EventInputAccepted
	EventRationCardAccepted
	EventIncomeRequired
	EventIncomeKnown
	EventExit
	EventSubmitted
	EventDuplicate
	EventRestart
)

var eventNames = [...]string{
	"consent_accepted", "consent_prefilled", "consent_declined", "file_received",
	"identity_extracted", "document_rejected", "identity_confirmed", "correction_requested",
	"correction_applied", "document_accepted", "not_linked", "income_exceeded",
	"input_accepted", "ration_card_accepted", "income_required", "income_known",
	"exit", "submitted", "duplicate", "restart",
}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("event(%d)", int(e))
}

type edge struct {
	from  models.Step
	event Event
}

// transitions is the complete flow. Restart is accepted from every step and
// is not listed.
var transitions = map[edge]models.Step{
	{models.StepConsent, EventConsentAccepted}:  models.StepUploadPrimaryID,
	{models.StepConsent, EventConsentPrefilled}: models.StepUploadSecondaryID,
	{models.StepConsent, EventConsentDeclined}:  models.StepDeclined,

	{models.StepUploadPrimaryID, EventFileReceived}:      models.StepVerifyPrimaryID,
	{models.StepUploadPrimaryID, EventIdentityExtracted}: models.StepConfirmPrimaryID,
	// verify_primary_id only lives inside one call while the document is read
	{models.StepVerifyPrimaryID, EventIdentityExtracted}: models.StepConfirmPrimaryID,
	{models.StepVerifyPrimaryID, EventDocumentRejected}:  models.StepUploadPrimaryID,

	{models.StepConfirmPrimaryID, EventIdentityConfirmed}:   models.StepUploadSecondaryID,
	{models.StepConfirmPrimaryID, EventCorrectionRequested}: models.StepCorrectPrimaryID,
	{models.StepCorrectPrimaryID, EventCorrectionApplied}:   models.StepConfirmPrimaryID,

	{models.StepUploadSecondaryID, EventDocumentAccepted}: models.StepCollectMobile,
	{models.StepUploadSecondaryID, EventNotLinked}:        models.StepIneligible,
	{models.StepUploadSecondaryID, EventIncomeExceeded}:   models.StepIneligible,

	{models.StepCollectMobile, EventInputAccepted}:        models.StepCollectEmail,
	{models.StepCollectEmail, EventInputAccepted}:         models.StepCollectMaritalStatus,
	{models.StepCollectMaritalStatus, EventInputAccepted}: models.StepSelectDomicileProof,
	{models.StepSelectDomicileProof, EventInputAccepted}:  models.StepUploadDomicileProof,

	{models.StepUploadDomicileProof, EventDocumentAccepted}:   models.StepUploadIncomeProof,
	{models.StepUploadDomicileProof, EventRationCardAccepted}: models.StepSelectRationColor,

	{models.StepSelectRationColor, EventIncomeRequired}: models.StepUploadIncomeProof,
	{models.StepSelectRationColor, EventIncomeKnown}:    models.StepUploadBankProof,
	{models.StepSelectRationColor, EventExit}:           models.StepExited,

	{models.StepUploadIncomeProof, EventDocumentAccepted}: models.StepUploadBankProof,
	{models.StepUploadIncomeProof, EventExit}:             models.StepExited,

	{models.StepUploadBankProof, EventDocumentAccepted}:  models.StepUploadPhotograph,
	{models.StepUploadPhotograph, EventDocumentAccepted}: models.StepFinalReview,

	{models.StepFinalReview, EventInputAccepted}: models.StepDeclaration,
	{models.StepDeclaration, EventInputAccepted}: models.StepSubmit,

	{models.StepSubmit, EventSubmitted}:      models.StepCompleted,
	{models.StepSubmit, EventDuplicate}:      models.StepCompleted,
	{models.StepSubmit, EventIncomeExceeded}: models.StepIneligible,
}

// Next returns the step that follows from on event.
func Next(from models.Step, event Event) (models.Step, error) {
	if event == EventRestart {
		return models.StepConsent, nil
	}
	to, ok := transitions[edge{from, event}]
	if !ok {
		return from, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("no transition from %s on %s", from, event))
	}
	return to, nil
}

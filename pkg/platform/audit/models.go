package audit

import (
	"context"
	"time"
)

// EventCategory drives retention and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers consent and eligibility outcomes that must be
	// retained for scheme audits.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers routine intake activity.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventSessionStarted       AuditEvent = "session_started"
	EventSessionRestarted     AuditEvent = "session_restarted"
	EventConsentGranted       AuditEvent = "consent_granted"
	EventConsentDeclined      AuditEvent = "consent_declined"
	EventDocumentRejected     AuditEvent = "document_rejected"
	EventApplicantIneligible  AuditEvent = "applicant_ineligible"
	EventApplicantExited      AuditEvent = "applicant_exited"
	EventApplicationSubmitted AuditEvent = "application_submitted"
	EventDuplicateApplication AuditEvent = "duplicate_application"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventConsentGranted:       CategoryCompliance,
	EventConsentDeclined:      CategoryCompliance,
	EventApplicantIneligible:  CategoryCompliance,
	EventApplicationSubmitted: CategoryCompliance,
	EventDuplicateApplication: CategoryCompliance,
}

// Category returns the category of e. Unknown events are operational.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from the intake domain. It never carries raw identity
// numbers; SubjectHash is a keyed hash of the primary identity number.
type Event struct {
	Category      EventCategory `json:"category"`
	Action        AuditEvent    `json:"action"`
	Timestamp     time.Time     `json:"timestamp"`
	SessionID     string        `json:"session_id"`
	SubjectHash   string        `json:"subject_hash,omitempty"`
	ApplicationID string        `json:"application_id,omitempty"`
	Decision      string        `json:"decision,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	RequestID     string        `json:"request_id,omitempty"`
	Channel       string        `json:"channel,omitempty"`
}

// Emitter delivers audit events to a sink.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Normalize fills the category and timestamp when unset.
func (e Event) Normalize(now time.Time) Event {
	if e.Category == "" {
		e.Category = e.Action.Category()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	return e
}

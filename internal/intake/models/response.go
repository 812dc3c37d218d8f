package models

import docmodels "enrollment/internal/document/models"

// ResponseKind tells the dispatcher how to render a reply.
type ResponseKind string

const (
	ResponsePrompt    ResponseKind = "prompt"
	ResponseRejection ResponseKind = "rejection"
	ResponseError     ResponseKind = "error"
	ResponseTerminal  ResponseKind = "terminal"
	ResponseCompleted ResponseKind = "completed"
)

// Expecting names the next input the flow waits for.
type Expecting string

const (
	ExpectConsent         Expecting = "consent"
	ExpectConfirmation    Expecting = "confirmation"
	ExpectCorrectionField Expecting = "correction_field"
	ExpectCorrectionValue Expecting = "correction_value"
	ExpectMobile          Expecting = "mobile"
	ExpectEmail           Expecting = "email"
	ExpectMaritalStatus   Expecting = "marital_status"
	ExpectDomicileChoice  Expecting = "domicile_choice"
	ExpectRationColor     Expecting = "ration_color"
	ExpectIncomeAction    Expecting = "income_action"
	ExpectReview          Expecting = "review"
	ExpectDeclaration     Expecting = "declaration"
	ExpectSubmit          Expecting = "submit"
	ExpectPrimaryIDNumber Expecting = "aadhaar_number"
	ExpectRestart         Expecting = "restart"
)

// ExpectUpload is the expectation for a file of kind.
func ExpectUpload(kind docmodels.Kind) Expecting {
	return Expecting(string(kind) + "_upload")
}

// Input is one inbound message from the dispatcher.
type Input struct {
	SessionID    string
	Message      string
	File         []byte
	DeclaredKind docmodels.Kind
	// Language is a hint used until consent locks the language.
	Language Language
}

// Response is the reply for one Input.
type Response struct {
	Text          string       `json:"response"`
	Kind          ResponseKind `json:"type"`
	Expecting     Expecting    `json:"waiting_for"`
	Step          Step         `json:"step"`
	ApplicationID string       `json:"application_id,omitempty"`
}

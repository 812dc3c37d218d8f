package models

import (
	"time"

	"github.com/shopspring/decimal"

	docmodels "enrollment/internal/document/models"
)

// Language is the conversation language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguageMarathi Language = "mr"
)

// ParseLanguage accepts codes and English names.
func ParseLanguage(s string) (Language, bool) {
	switch s {
	case "en", "english":
		return LanguageEnglish, true
	case "hi", "hindi":
		return LanguageHindi, true
	case "mr", "marathi":
		return LanguageMarathi, true
	}
	return "", false
}

// Session is one applicant's conversation state.
type Session struct {
	ID             string   `json:"id"`
	Step           Step     `json:"step"`
	Language       Language `json:"language"`
	LanguageLocked bool     `json:"language_locked"`

	Personal Personal `json:"personal"`
	Contact  Contact  `json:"contact"`
	Bank     Bank     `json:"bank"`
	Income   Income   `json:"income"`
	Domicile Domicile `json:"domicile"`
	Identity Identity `json:"identity"`

	// Documents keeps upload order; a re-upload of a kind replaces it in place.
	Documents []UploadedDocument `json:"documents,omitempty"`
	Flags     Flags              `json:"flags"`

	PendingIdentity *PendingIdentity `json:"pending_identity,omitempty"`
	// PendingCorrection names the field awaiting a replacement value.
	PendingCorrection string `json:"pending_correction,omitempty"`

	ApplicationID string    `json:"application_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Personal struct {
	Name          string `json:"name,omitempty"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	Age           int    `json:"age,omitempty"`
	Gender        string `json:"gender,omitempty"`
	MaritalStatus string `json:"marital_status,omitempty"`
}

type Contact struct {
	Mobile  string `json:"mobile,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type Bank struct {
	AccountNumber string `json:"account_number,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	HolderName    string `json:"holder_name,omitempty"`
}

// IncomeSource records where the annual income figure came from.
type IncomeSource string

const (
	IncomeSourceCertificate IncomeSource = "income_certificate"
	IncomeSourceRationCard  IncomeSource = "ration_card"
	IncomeSourceRegistry    IncomeSource = "registry"
)

type Income struct {
	AnnualIncome      decimal.Decimal `json:"annual_income"`
	Known             bool            `json:"known"`
	Source            IncomeSource    `json:"source,omitempty"`
	RationCardColor   string          `json:"ration_card_color,omitempty"`
	CertificateNumber string          `json:"certificate_number,omitempty"`
	IssueDate         string          `json:"issue_date,omitempty"`
}

type Domicile struct {
	ProofKind         docmodels.Kind `json:"proof_kind,omitempty"`
	CertificateNumber string         `json:"certificate_number,omitempty"`
	District          string         `json:"district,omitempty"`
	Taluka            string         `json:"taluka,omitempty"`
	Village           string         `json:"village,omitempty"`
}

// Identity holds the primary (Aadhaar) and secondary (PAN) numbers.
type Identity struct {
	PrimaryID   string `json:"primary_id,omitempty"`
	SecondaryID string `json:"secondary_id,omitempty"`
}

type UploadedDocument struct {
	Kind       docmodels.Kind   `json:"kind"`
	Fields     docmodels.Fields `json:"fields"`
	Reference  string           `json:"reference"`
	UploadedAt time.Time        `json:"uploaded_at"`
}

type Flags struct {
	ConsentAccepted      bool `json:"consent_accepted"`
	IdentityPrefilled    bool `json:"identity_prefilled"`
	DeclarationAccepted  bool `json:"declaration_accepted"`
	AwaitingIncomeAction bool `json:"awaiting_income_action"`
}

// PendingIdentity is extracted primary-id data awaiting confirmation. The
// document bytes are kept so the file is stored only on commit.
type PendingIdentity struct {
	Fields   docmodels.Fields `json:"fields"`
	Document []byte           `json:"document,omitempty"`
}

// NewSession returns a session at the consent step.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Step:      StepConsent,
		Language:  LanguageEnglish,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Document returns the uploaded document of kind, if any.
func (s *Session) Document(kind docmodels.Kind) (UploadedDocument, bool) {
	for _, d := range s.Documents {
		if d.Kind == kind {
			return d, true
		}
	}
	return UploadedDocument{}, false
}

// PutDocument appends doc, or replaces the existing entry of the same kind.
func (s *Session) PutDocument(doc UploadedDocument) {
	for i, d := range s.Documents {
		if d.Kind == doc.Kind {
			s.Documents[i] = doc
			return
		}
	}
	s.Documents = append(s.Documents, doc)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Documents != nil {
		cp.Documents = make([]UploadedDocument, len(s.Documents))
		for i, d := range s.Documents {
			d.Fields = d.Fields.Clone()
			cp.Documents[i] = d
		}
	}
	if s.PendingIdentity != nil {
		p := PendingIdentity{Fields: s.PendingIdentity.Fields.Clone()}
		if s.PendingIdentity.Document != nil {
			p.Document = append([]byte(nil), s.PendingIdentity.Document...)
		}
		cp.PendingIdentity = &p
	}
	return &cp
}

// IdentityRecord is a verified primary-id record captured by an earlier
// channel and offered as pre-fill.
type IdentityRecord struct {
	PrimaryID   string `json:"primary_id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
}

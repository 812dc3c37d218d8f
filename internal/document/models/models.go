package models

import "strings"

// Kind identifies a document type accepted by the intake flow.
type Kind string

const (
	KindAadhaar             Kind = "aadhaar"
	KindPANCard             Kind = "pan_card"
	KindBankPassbook        Kind = "bank_passbook"
	KindIncomeCertificate   Kind = "income_certificate"
	KindRationCard          Kind = "ration_card"
	KindVoterID             Kind = "voter_id"
	KindDomicileCertificate Kind = "domicile_certificate"
	KindBirthCertificate    Kind = "birth_certificate"
	KindSchoolLeaving       Kind = "school_leaving"
	KindPhotograph          Kind = "photograph"
)

// ParseKind accepts the canonical kind names.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := catalog[k]
	return k, ok
}

// Label is the human-readable name used in prompts.
func (k Kind) Label() string {
	if spec, ok := catalog[k]; ok {
		return spec.Label
	}
	return string(k)
}

// Field names produced by extraction.
const (
	FieldAadhaarNumber     = "aadhaar_number"
	FieldName              = "name"
	FieldDOB               = "dob"
	FieldGender            = "gender"
	FieldAddress           = "address"
	FieldPANNumber         = "pan_number"
	FieldFatherName        = "father_name"
	FieldDateOfBirth       = "date_of_birth"
	FieldAnnualIncome      = "annual_income"
	FieldCertificateNumber = "certificate_number"
	FieldIssuingAuthority  = "issuing_authority"
	FieldIssueDate         = "issue_date"
	FieldHolderName        = "holder_name"
	FieldState             = "state"
	FieldDistrict          = "district"
	FieldTaluka            = "taluka"
	FieldVillage           = "village"
	FieldCardNumber        = "card_number"
	FieldCardType          = "card_type"
	FieldFamilyMembers     = "family_members"
	FieldVoterIDNumber     = "voter_id_number"
	FieldAccountNumber     = "account_number"
	FieldIFSC              = "ifsc_code"
	FieldBankName          = "bank_name"
	FieldAccountHolderName = "account_holder_name"
	FieldRegistrationNo    = "registration_number"
	FieldStudentName       = "student_name"
	FieldSchoolName        = "school_name"
)

// Fields is the flat field map extracted from a document.
type Fields map[string]string

// Get returns the trimmed value of key.
func (f Fields) Get(key string) string {
	if f == nil {
		return ""
	}
	return strings.TrimSpace(f[key])
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// RejectionReason says why a document was not accepted.
type RejectionReason string

const (
	ReasonWrongKind    RejectionReason = "wrong_kind"
	ReasonNameMismatch RejectionReason = "name_mismatch"
	ReasonUnreadable   RejectionReason = "unreadable"
)

// rawTextLimit bounds retained OCR text for every kind except income
// certificates, whose full text feeds the income normalizer.
const rawTextLimit = 500

// Result is the outcome of analyzing one document. Valid results carry no
// Reason; rejected results carry a Reason and a user-facing Message.
type Result struct {
	Kind    Kind
	RawText string
	Fields  Fields
	Valid   bool
	Reason  RejectionReason
	Message string
}

// Accepted builds a valid result.
func Accepted(kind Kind, rawText string, fields Fields) *Result {
	if fields == nil {
		fields = Fields{}
	}
	return &Result{Kind: kind, RawText: retain(kind, rawText), Fields: fields, Valid: true}
}

// Rejected builds an invalid result with a reason and message.
func Rejected(kind Kind, reason RejectionReason, message, rawText string) *Result {
	return &Result{Kind: kind, RawText: retain(kind, rawText), Fields: Fields{}, Reason: reason, Message: message}
}

func retain(kind Kind, raw string) string {
	if kind == KindIncomeCertificate {
		return raw
	}
	r := []rune(raw)
	if len(r) > rawTextLimit {
		return string(r[:rawTextLimit])
	}
	return raw
}

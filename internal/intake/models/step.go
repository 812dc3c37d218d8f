package models

import "fmt"

// Step is a position in the intake flow. Declaration order is flow order;
// the forward-only property compares ordinals.
type Step int

const (
	StepConsent Step = iota
	StepUploadPrimaryID
	StepVerifyPrimaryID
	StepConfirmPrimaryID
	StepCorrectPrimaryID
	StepUploadSecondaryID
	StepCollectMobile
	StepCollectEmail
	StepCollectMaritalStatus
	StepSelectDomicileProof
	StepUploadDomicileProof
	StepSelectRationColor
	StepUploadIncomeProof
	StepUploadBankProof
	StepUploadPhotograph
	StepFinalReview
	StepDeclaration
	StepSubmit
	StepCompleted

	// Terminal branches.
	StepDeclined
	StepIneligible
	StepExited
)

var stepNames = map[Step]string{
	StepConsent:              "consent",
	StepUploadPrimaryID:      "upload_primary_id",
	StepVerifyPrimaryID:      "verify_primary_id",
	StepConfirmPrimaryID:     "confirm_primary_id",
	StepCorrectPrimaryID:     "correct_primary_id",
	StepUploadSecondaryID:    "upload_secondary_id",
	StepCollectMobile:        "collect_mobile",
	StepCollectEmail:         "collect_email",
	StepCollectMaritalStatus: "collect_marital_status",
	StepSelectDomicileProof:  "select_domicile_proof",
	StepUploadDomicileProof:  "upload_domicile_proof",
	StepSelectRationColor:    "select_ration_color",
	StepUploadIncomeProof:    "upload_income_proof",
	StepUploadBankProof:      "upload_bank_proof",
	StepUploadPhotograph:     "upload_photograph",
	StepFinalReview:          "final_review",
	StepDeclaration:          "declaration",
	StepSubmit:               "submit",
	StepCompleted:            "completed",
	StepDeclined:             "declined",
	StepIneligible:           "ineligible",
	StepExited:               "exited",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ParseStep is the inverse of String.
func ParseStep(name string) (Step, bool) {
	for s, n := range stepNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// IsTerminal reports whether the flow has ended. Only restart leaves a
// terminal step.
func (s Step) IsTerminal() bool {
	switch s {
	case StepCompleted, StepDeclined, StepIneligible, StepExited:
		return true
	}
	return false
}

func (s Step) MarshalText() ([]byte, error) {
	if _, ok := stepNames[s]; !ok {
		return nil, fmt.Errorf("unknown step %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	step, ok := ParseStep(string(b))
	if !ok {
		return fmt.Errorf("unknown step %q", string(b))
	}
	*s = step
	return nil
}

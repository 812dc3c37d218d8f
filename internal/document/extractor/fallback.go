package extractor

import (
	"regexp"
	"strings"

	"enrollment/internal/document/income"
	"enrollment/internal/document/models"
)

var (
	aadhaarPattern = regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\b`)
	panPattern     = regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`)
	ifscPattern    = regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)
	accountPattern = regexp.MustCompile(`\b\d{9,18}\b`)
	rationPattern  = regexp.MustCompile(`\b(MH\d{10,}|\d{10,})\b`)
	voterPattern   = regexp.MustCompile(`\b[A-Z]{3}\d{7}\b`)
	dobPattern     = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
	namePattern    = regexp.MustCompile(`(?i)(?:name|नाम)[:\s]+([A-Za-z][A-Za-z ]+)`)
	femalePattern  = regexp.MustCompile(`(?i)\bfemale\b|महिला`)
	malePattern    = regexp.MustCompile(`(?i)\bmale\b|पुरुष`)
)

// Fallback extracts what deterministic patterns can find in rawText.
func Fallback(rawText string, kind models.Kind) models.Fields {
	out := models.Fields{}
	switch kind {
	case models.KindAadhaar:
		if m := aadhaarPattern.FindString(rawText); m != "" {
			out[models.FieldAadhaarNumber] = m
		}
		if m := namePattern.FindStringSubmatch(rawText); m != nil {
			out[models.FieldName] = strings.TrimSpace(m[1])
		}
		if m := dobPattern.FindString(rawText); m != "" {
			out[models.FieldDOB] = m
		}
		switch {
		case femalePattern.MatchString(rawText):
			out[models.FieldGender] = "Female"
		case malePattern.MatchString(rawText):
			out[models.FieldGender] = "Male"
		}
	case models.KindPANCard:
		if m := panPattern.FindString(rawText); m != "" {
			out[models.FieldPANNumber] = m
		}
	case models.KindBankPassbook:
		if m := ifscPattern.FindString(rawText); m != "" {
			out[models.FieldIFSC] = m
		}
		if m := accountPattern.FindString(rawText); m != "" {
			out[models.FieldAccountNumber] = m
		}
	case models.KindRationCard:
		if m := rationPattern.FindString(rawText); m != "" {
			out[models.FieldCardNumber] = m
		}
	case models.KindVoterID:
		if m := voterPattern.FindString(rawText); m != "" {
			out[models.FieldVoterIDNumber] = m
		}
	case models.KindIncomeCertificate:
		if v := income.Normalize("", rawText); v.IsPositive() {
			out[models.FieldAnnualIncome] = v.String()
		}
	}
	return out
}

// normalize canonicalizes identifier fields in place.
func normalize(fields models.Fields) {
	if v, ok := fields[models.FieldAadhaarNumber]; ok {
		fields[models.FieldAadhaarNumber] = digitsOnly(v)
	}
	for _, key := range []string{models.FieldPANNumber, models.FieldIFSC, models.FieldVoterIDNumber} {
		if v, ok := fields[key]; ok {
			fields[key] = strings.ToUpper(strings.Join(strings.Fields(v), ""))
		}
	}
	for k, v := range fields {
		if strings.TrimSpace(v) == "" {
			delete(fields, k)
		}
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

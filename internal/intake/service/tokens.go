package service

import (
	"regexp"
	"strings"
	"time"

	docmodels "enrollment/internal/document/models"
	"enrollment/internal/intake/models"
)

var (
	mobilePattern      = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailPattern       = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	primaryIDPattern   = regexp.MustCompile(`^\d{12}$`)
	secondaryIDPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

const dateLayout = "02/01/2006"

// Affirmative tokens carry the language they were typed in. English "yes"
// keeps whatever language the session already has.
var yesTokens = map[string]models.Language{
	"yes":  "",
	"y":    "",
	"ho":   models.LanguageMarathi,
	"होय":  models.LanguageMarathi,
	"हां":  models.LanguageHindi,
	"हाँ":  models.LanguageHindi,
	"haan": models.LanguageHindi,
}

var (
	noTokens         = set("no", "n", "nahi", "नाही", "नहीं")
	correctionTokens = set("correction", "दुरुस्ती", "सुधार")
	restartTokens    = set("restart", "start over")
	exitTokens       = set("exit", "quit", "cancel")
	skipTokens       = set("skip")
)

func set(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

func has(tokens map[string]struct{}, token string) bool {
	_, ok := tokens[token]
	return ok
}

func trimMessage(s string) string {
	return strings.TrimSpace(s)
}

// normalizeToken lowercases and collapses whitespace.
func normalizeToken(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var maritalOptions = []struct {
	number, token, label string
}{
	{"1", "married", "Married"},
	{"2", "unmarried", "Unmarried"},
	{"3", "widow", "Widow"},
	{"4", "divorced", "Divorced"},
}

func parseMaritalStatus(token string) (string, bool) {
	for _, o := range maritalOptions {
		if token == o.number || token == o.token {
			return o.label, true
		}
	}
	return "", false
}

var domicileOptions = []docmodels.Kind{
	docmodels.KindDomicileCertificate,
	docmodels.KindRationCard,
	docmodels.KindVoterID,
	docmodels.KindBirthCertificate,
	docmodels.KindSchoolLeaving,
}

func parseDomicileProof(token string) (docmodels.Kind, bool) {
	for i, k := range domicileOptions {
		if token == string(rune('1'+i)) || token == string(k) || token == strings.ToLower(k.Label()) {
			return k, true
		}
	}
	return "", false
}

const (
	colorYellow = "Yellow"
	colorOrange = "Orange"
	colorWhite  = "White"
)

func parseRationColor(token string) (string, bool) {
	switch token {
	case "1", "yellow":
		return colorYellow, true
	case "2", "orange":
		return colorOrange, true
	case "3", "white":
		return colorWhite, true
	}
	return "", false
}

var correctableFields = []struct {
	number, field, label string
	hints                []string
}{
	{"1", docmodels.FieldName, "name", []string{"name"}},
	{"2", docmodels.FieldDOB, "date of birth", []string{"dob", "birth"}},
	{"3", docmodels.FieldAddress, "address", []string{"address"}},
}

func parseCorrectionField(token string) (field, label string, ok bool) {
	for _, c := range correctableFields {
		if token == c.number {
			return c.field, c.label, true
		}
		for _, h := range c.hints {
			if strings.Contains(token, h) {
				return c.field, c.label, true
			}
		}
	}
	return "", "", false
}

func correctionLabel(field string) string {
	for _, c := range correctableFields {
		if c.field == field {
			return c.label
		}
	}
	return field
}

// digitsOnly strips spaces and dashes from a typed identity number.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// ageOn returns the age in whole years at now for a DD/MM/YYYY date, or 0.
func ageOn(dob string, now time.Time) int {
	born, err := time.Parse(dateLayout, strings.TrimSpace(dob))
	if err != nil || born.After(now) {
		return 0
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age
}

// maskTail replaces all but the last four characters with X.
func maskTail(s string) string {
	if len(s) <= 4 {
		return s
	}
	return strings.Repeat("X", len(s)-4) + s[len(s)-4:]
}

// maskPrimaryID renders a 12-digit number as XXXX XXXX 1294.
func maskPrimaryID(id string) string {
	if len(id) != 12 {
		return maskTail(id)
	}
	return "XXXX XXXX " + id[8:]
}

// Package validator checks that OCR text belongs to the declared document
// kind and that the holder name agrees with the applicant.
package validator

import (
	"strings"
	"unicode"

	"enrollment/internal/document/models"
)

// nameMatchRatio is the share of expected name tokens that must appear in
// the extracted name. OCR often drops middle names and initials.
const nameMatchRatio = 0.7

// MatchesKind reports whether rawText carries at least one keyword of kind.
// Kinds without keywords always match.
func MatchesKind(rawText string, kind models.Kind) bool {
	profile, ok := models.ProfileFor(kind)
	if !ok {
		return false
	}
	if len(profile.Keywords) == 0 {
		return true
	}
	text := strings.ToLower(rawText)
	for _, kw := range profile.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// HolderName returns the holder-name field of fields for kind, or "" when the
// kind has no holder.
func HolderName(kind models.Kind, fields models.Fields) string {
	profile, ok := models.ProfileFor(kind)
	if !ok || profile.NameField == "" {
		return ""
	}
	return fields.Get(profile.NameField)
}

// NamesMatch compares an extracted name against the expected one. Either
// side empty counts as a match since there is nothing to compare.
func NamesMatch(expected, extracted string) bool {
	want := tokens(expected)
	got := tokens(extracted)
	if len(want) == 0 || len(got) == 0 {
		return true
	}
	if sameSet(want, got) {
		return true
	}
	common := 0
	for t := range want {
		if _, ok := got[t]; ok {
			common++
		}
	}
	need := max(1.0, float64(len(want))*nameMatchRatio)
	return float64(common) >= need
}

func tokens(name string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return unicode.IsSpace(r) || r == '.' || r == ','
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"enrollment/internal/document/models"
)

func TestMatchesKind(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind models.Kind
		want bool
	}{
		{"english aadhaar", "Government of India\nAADHAAR\n1234 5678 9012", models.KindAadhaar, true},
		{"devanagari aadhaar", "भारत सरकार\nआधार", models.KindAadhaar, true},
		{"pan text uploaded as aadhaar", "INCOME TAX DEPARTMENT\nPermanent Account Number", models.KindAadhaar, false},
		{"marathi ration card", "महाराष्ट्र शासन शिधापत्रिका", models.KindRationCard, true},
		{"voter id", "ELECTION COMMISSION OF INDIA", models.KindVoterID, true},
		{"photograph accepts anything", "", models.KindPhotograph, true},
		{"unknown kind", "anything", models.Kind("passport"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesKind(tt.text, tt.kind))
		})
	}
}

func TestMatchesKindIsDeterministic(t *testing.T) {
	text := "Savings Account Passbook IFSC SBIN0001234"
	first := MatchesKind(text, models.KindBankPassbook)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MatchesKind(text, models.KindBankPassbook))
	}
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name      string
		expected  string
		extracted string
		want      bool
	}{
		{"identical", "Sunita Ramesh Patil", "sunita ramesh patil", true},
		{"reordered", "Patil Sunita", "Sunita Patil", true},
		{"dropped middle name", "Sunita Ramesh Patil", "Sunita Patil", false},
		{"two of two with extra initial", "Sunita Patil", "Sunita R. Patil", true},
		{"three of four", "Sunita Ramesh Rao Patil", "Sunita Ramesh Patil", true},
		{"different person", "Sunita Patil", "Anita Deshmukh", false},
		{"one shared token of two", "Sunita Patil", "Sunita Deshmukh", false},
		{"single token name", "Sunita", "Sunita Patil", true},
		{"expected empty", "", "Anyone", true},
		{"extracted empty", "Sunita Patil", "  ", true},
		{"collapsed whitespace", "  Sunita   Patil ", "Sunita Patil", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NamesMatch(tt.expected, tt.extracted))
		})
	}
}

func TestHolderName(t *testing.T) {
	fields := models.Fields{models.FieldAccountHolderName: "Sunita Patil", models.FieldName: "ignored"}
	assert.Equal(t, "Sunita Patil", HolderName(models.KindBankPassbook, fields))
	assert.Equal(t, "", HolderName(models.KindPhotograph, fields))
}

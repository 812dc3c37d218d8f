package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawTextRetention(t *testing.T) {
	long := strings.Repeat("आ", 600)

	assert.Len(t, []rune(Accepted(KindAadhaar, long, nil).RawText), 500)
	assert.Len(t, []rune(Rejected(KindPANCard, ReasonWrongKind, "x", long).RawText), 500)
	assert.Equal(t, long, Accepted(KindIncomeCertificate, long, nil).RawText)
}

func TestResultConstructors(t *testing.T) {
	ok := Accepted(KindAadhaar, "text", Fields{FieldName: " Asha "})
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Reason)
	assert.Equal(t, "Asha", ok.Fields.Get(FieldName))

	bad := Rejected(KindAadhaar, ReasonUnreadable, "could not read", "")
	assert.False(t, bad.Valid)
	assert.Equal(t, ReasonUnreadable, bad.Reason)
	assert.NotNil(t, bad.Fields)
}

func TestCatalogCoversEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		profile, ok := ProfileFor(k)
		assert.True(t, ok, k)
		assert.NotEmpty(t, profile.Label, k)
		if k != KindPhotograph {
			assert.NotEmpty(t, profile.Keywords, k)
			assert.Contains(t, profile.Fields, profile.NameField, k)
		}
	}
	_, ok := ParseKind(" PAN_CARD ")
	assert.True(t, ok)
	_, ok = ParseKind("passport")
	assert.False(t, ok)
}

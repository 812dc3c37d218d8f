package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docmodels "enrollment/internal/document/models"
)

func TestStepOrdering(t *testing.T) {
	assert.Less(t, StepConsent, StepUploadPrimaryID)
	assert.Less(t, StepUploadSecondaryID, StepCollectMobile)
	assert.Less(t, StepSelectRationColor, StepUploadIncomeProof)
	assert.Less(t, StepSubmit, StepCompleted)
	assert.True(t, StepIneligible.IsTerminal())
	assert.False(t, StepSubmit.IsTerminal())
}

func TestStepTextRoundTrip(t *testing.T) {
	for step := range stepNames {
		b, err := step.MarshalText()
		require.NoError(t, err)
		var got Step
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, step, got)
	}
	var s Step
	assert.Error(t, s.UnmarshalText([]byte("nowhere")))
}

func TestSessionJSON(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("s1", now)
	s.Step = StepCollectEmail
	s.Income.AnnualIncome = decimal.NewFromInt(180000)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"step":"collect_email"`)

	var got Session
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, StepCollectEmail, got.Step)
	assert.True(t, got.Income.AnnualIncome.Equal(decimal.NewFromInt(180000)))
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.PutDocument(UploadedDocument{Kind: docmodels.KindPANCard, Fields: docmodels.Fields{"pan_number": "ABCDE1234F"}})
	s.PendingIdentity = &PendingIdentity{Fields: docmodels.Fields{"name": "A"}, Document: []byte("img")}

	cp := s.Clone()
	cp.Documents[0].Fields["pan_number"] = "CHANGED"
	cp.PendingIdentity.Fields["name"] = "B"
	cp.PendingIdentity.Document[0] = 'X'

	assert.Equal(t, "ABCDE1234F", s.Documents[0].Fields["pan_number"])
	assert.Equal(t, "A", s.PendingIdentity.Fields["name"])
	assert.Equal(t, "img", string(s.PendingIdentity.Document))
}

func TestPutDocumentReplacesSameKind(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.PutDocument(UploadedDocument{Kind: docmodels.KindPANCard, Reference: "a"})
	s.PutDocument(UploadedDocument{Kind: docmodels.KindBankPassbook, Reference: "b"})
	s.PutDocument(UploadedDocument{Kind: docmodels.KindPANCard, Reference: "c"})

	require.Len(t, s.Documents, 2)
	assert.Equal(t, "c", s.Documents[0].Reference)
	doc, ok := s.Document(docmodels.KindBankPassbook)
	require.True(t, ok)
	assert.Equal(t, "b", doc.Reference)
}

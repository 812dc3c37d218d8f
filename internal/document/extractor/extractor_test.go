package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"enrollment/internal/document/extractor/mocks"
	"enrollment/internal/document/models"
	"enrollment/pkg/platform/circuit"
)

//go:generate mockgen -source=extractor.go -destination=mocks/mocks.go -package=mocks LLM

const aadhaarText = "Government of India\nName: Sunita Rao\nDOB: 14/08/1990\nFemale\n4821 7730 1294"

func newTestExtractor(t *testing.T, opts ...Option) (*Extractor, *mocks.MockLLM) {
	t.Helper()
	ctrl := gomock.NewController(t)
	llm := mocks.NewMockLLM(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(llm, logger, opts...), llm
}

func TestExtract_LLMFieldsWinAndGapsAreFilled(t *testing.T) {
	ext, llm := newTestExtractor(t)
	llm.EXPECT().
		ExtractFields(gomock.Any(), aadhaarText, models.KindAadhaar, gomock.Any()).
		Return(models.Fields{"aadhaar_number": "4821 7730 1294", "name": "Sunita R. Rao", "dob": ""}, nil)

	got := ext.Extract(context.Background(), aadhaarText, models.KindAadhaar)

	assert.Equal(t, "482177301294", got.Get(models.FieldAadhaarNumber))
	assert.Equal(t, "Sunita R. Rao", got.Get(models.FieldName))
	assert.Equal(t, "14/08/1990", got.Get(models.FieldDOB))
	assert.Equal(t, "Female", got.Get(models.FieldGender))
}

func TestExtract_LLMFailureFallsBackToPatterns(t *testing.T) {
	ext, llm := newTestExtractor(t)
	llm.EXPECT().ExtractFields(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("chat status 500"))

	got := ext.Extract(context.Background(), "STATE BANK OF INDIA IFSC SBIN0001234 A/c 123456789012", models.KindBankPassbook)

	assert.Equal(t, "SBIN0001234", got.Get(models.FieldIFSC))
	assert.Equal(t, "123456789012", got.Get(models.FieldAccountNumber))
}

func TestExtract_BreakerSkipsLLMAfterRepeatedFailures(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.New("llm", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }))
	ext, llm := newTestExtractor(t, WithBreaker(breaker))
	llm.EXPECT().ExtractFields(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("timeout")).Times(2)

	for range 3 {
		got := ext.Extract(context.Background(), "Permanent Account Number ABCDE1234F", models.KindPANCard)
		assert.Equal(t, "ABCDE1234F", got.Get(models.FieldPANNumber))
	}
	assert.True(t, breaker.IsOpen())
}

func TestExtract_NormalizesIdentifiers(t *testing.T) {
	ext, llm := newTestExtractor(t)
	llm.EXPECT().ExtractFields(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.Fields{"pan_number": " abcde 1234f ", "name": "Ravi"}, nil)

	got := ext.Extract(context.Background(), "income tax department", models.KindPANCard)
	assert.Equal(t, "ABCDE1234F", got.Get(models.FieldPANNumber))
}

func TestExtract_KindWithoutSchema(t *testing.T) {
	ext, _ := newTestExtractor(t)
	got := ext.Extract(context.Background(), "anything", models.KindPhotograph)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtract_WithoutLLM(t *testing.T) {
	ext := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got := ext.Extract(context.Background(), "Annual Income: Rs. 4,20,000/-", models.KindIncomeCertificate)
	assert.Equal(t, "420000", got.Get(models.FieldAnnualIncome))
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name string
		kind models.Kind
		text string
		want models.Fields
	}{
		{"ration card number", models.KindRationCard, "Ration Card No MH1234567890", models.Fields{"card_number": "MH1234567890"}},
		{"voter id", models.KindVoterID, "EPIC No. XYZ1234567", models.Fields{"voter_id_number": "XYZ1234567"}},
		{"nothing found", models.KindPANCard, "blurred", models.Fields{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fallback(tt.text, tt.kind))
		})
	}
}

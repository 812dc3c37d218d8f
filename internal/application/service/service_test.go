package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"enrollment/internal/application/models"
	"enrollment/internal/application/service/mocks"
	"enrollment/internal/application/store"
	docmodels "enrollment/internal/document/models"
	intake "enrollment/internal/intake/models"
	dErrors "enrollment/pkg/domain-errors"
	"enrollment/pkg/platform/pii"
	"enrollment/pkg/platform/sentinel"
	"enrollment/pkg/requestcontext"
)

var ceiling = decimal.NewFromInt(250000)

func completedSession(primaryID string) *intake.Session {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := intake.NewSession("sess-1", now)
	s.Step = intake.StepSubmit
	s.Identity = intake.Identity{PrimaryID: primaryID, SecondaryID: "ABCDE1234F"}
	s.Personal = intake.Personal{Name: "Sunita Rao", DateOfBirth: "14/08/1990", Age: 35, MaritalStatus: "Married"}
	s.Contact = intake.Contact{Mobile: "9876543210", Address: "Ward 4, Nashik"}
	s.Income = intake.Income{AnnualIncome: decimal.NewFromInt(180000), Known: true, Source: intake.IncomeSourceCertificate}
	s.Bank = intake.Bank{AccountNumber: "123456789012", IFSC: "SBIN0001234"}
	s.PutDocument(intake.UploadedDocument{Kind: docmodels.KindAadhaar, Fields: docmodels.Fields{"name": "Sunita Rao"}, Reference: "memory://a"})
	s.PutDocument(intake.UploadedDocument{Kind: docmodels.KindPANCard, Fields: docmodels.Fields{"pan_number": "ABCDE1234F"}, Reference: "memory://p"})
	s.PutDocument(intake.UploadedDocument{Kind: docmodels.KindIncomeCertificate, Fields: docmodels.Fields{"annual_income": "180000"}, Reference: "memory://i"})
	return s
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type FinalizerSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemoryStore
	finalizer *Finalizer
}

func TestFinalizerSuite(t *testing.T) {
	suite.Run(t, new(FinalizerSuite))
}

func (s *FinalizerSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	s.store = store.NewInMemoryStore()
	s.finalizer = New(s.store, ceiling, pii.NewHasher("test-key"), discardLogger())
}

func (s *FinalizerSuite) TestPersistsBeneficiaryAndDocuments() {
	id, err := s.finalizer.Finalize(s.ctx, completedSession("482177301294"))
	s.Require().NoError(err)
	s.Regexp(regexp.MustCompile(`^APP-20260302-[0-9A-F]{8}$`), id)

	b, ok := s.store.Beneficiary(id)
	s.Require().True(ok)
	s.Equal("Sunita Rao", b.FullName)
	s.Equal("482177301294", b.PrimaryID)
	s.True(b.AnnualIncome.Equal(decimal.NewFromInt(180000)))
	s.Require().NotNil(b.DateOfBirth)
	s.Equal(1990, b.DateOfBirth.Year())

	docs := s.store.Documents(id)
	s.Len(docs, 3)
}

func (s *FinalizerSuite) TestSecondApplicationForSameApplicantIsRefused() {
	first, err := s.finalizer.Finalize(s.ctx, completedSession("482177301294"))
	s.Require().NoError(err)

	other := completedSession("482177301294")
	other.ID = "sess-2"
	_, err = s.finalizer.Finalize(s.ctx, other)
	s.ErrorIs(err, ErrAlreadyApplied)

	filing, err := s.store.FindByPrimaryID(s.ctx, "482177301294")
	s.Require().NoError(err)
	s.Equal(first, filing.ApplicationID)
	s.Equal("sess-1", filing.SessionID)
}

// A session that already filed gets its own application id back instead of
// being told it applied before.
func (s *FinalizerSuite) TestRepeatedSubmitFromSameSessionReturnsFiledID() {
	first, err := s.finalizer.Finalize(s.ctx, completedSession("482177301294"))
	s.Require().NoError(err)

	again, err := s.finalizer.Finalize(s.ctx, completedSession("482177301294"))
	s.Require().NoError(err)
	s.Equal(first, again)
	s.Len(s.store.Documents(first), 3)
}

func (s *FinalizerSuite) TestIncomeRecheck() {
	sess := completedSession("482177301294")
	sess.Income.AnnualIncome = decimal.NewFromInt(250001)

	_, err := s.finalizer.Finalize(s.ctx, sess)
	s.ErrorIs(err, ErrIneligible)

	_, err = s.store.FindByPrimaryID(s.ctx, "482177301294")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *FinalizerSuite) TestIncomeAtCeilingIsEligible() {
	sess := completedSession("482177301294")
	sess.Income.AnnualIncome = ceiling

	_, err := s.finalizer.Finalize(s.ctx, sess)
	s.NoError(err)
}

func TestFinalize_DocumentFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	f := New(st, ceiling, pii.NewHasher("k"), discardLogger(), WithDocumentWorkers(1))

	st.EXPECT().FindByPrimaryID(gomock.Any(), "482177301294").Return(nil, sentinel.ErrNotFound)
	st.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) })
	st.EXPECT().SaveBeneficiary(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveDocument(gomock.Any(), gomock.Any()).Return(errors.New("disk full")).MinTimes(1)

	_, err := f.Finalize(context.Background(), completedSession("482177301294"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestFinalize_DuplicateCheckFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	f := New(st, ceiling, pii.NewHasher("k"), discardLogger())

	st.EXPECT().FindByPrimaryID(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	_, err := f.Finalize(context.Background(), completedSession("482177301294"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestFinalize_MissingPrimaryID(t *testing.T) {
	f := New(store.NewInMemoryStore(), ceiling, pii.NewHasher("k"), discardLogger())
	_, err := f.Finalize(context.Background(), completedSession(""))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestInMemoryStore_FailedTxWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	f := New(st, ceiling, pii.NewHasher("k"), discardLogger())
	sess := completedSession("482177301294")

	err := st.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, st.SaveBeneficiary(ctx, toBeneficiary(sess, "APP-1", time.Now())))
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = st.FindByPrimaryID(ctx, "482177301294")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = f.Finalize(ctx, sess)
	assert.NoError(t, err)
}

// Losing the insert race to this session's own earlier filing resolves to
// that filing.
func TestFinalize_ConflictWithOwnFilingReturnsIt(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	f := New(st, ceiling, pii.NewHasher("k"), discardLogger())

	gomock.InOrder(
		st.EXPECT().FindByPrimaryID(gomock.Any(), "482177301294").Return(nil, sentinel.ErrNotFound),
		st.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
		st.EXPECT().FindByPrimaryID(gomock.Any(), "482177301294").
			Return(&models.Filing{ApplicationID: "APP-20260302-0000ABCD", SessionID: "sess-1"}, nil),
	)

	id, err := f.Finalize(context.Background(), completedSession("482177301294"))
	require.NoError(t, err)
	assert.Equal(t, "APP-20260302-0000ABCD", id)
}

func TestFinalize_ConflictWithOtherSessionIsDuplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	f := New(st, ceiling, pii.NewHasher("k"), discardLogger())

	st.EXPECT().FindByPrimaryID(gomock.Any(), "482177301294").
		Return(&models.Filing{ApplicationID: "APP-20260301-0000FFFF", SessionID: "sess-9"}, nil)

	_, err := f.Finalize(context.Background(), completedSession("482177301294"))
	assert.ErrorIs(t, err, ErrAlreadyApplied)
}

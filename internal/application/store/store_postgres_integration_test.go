//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"enrollment/internal/application/models"
	"enrollment/internal/application/store"
	"enrollment/pkg/platform/sentinel"
	"enrollment/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T(), store.Schema)
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.Exec(`TRUNCATE application_documents, beneficiaries`)
	s.Require().NoError(err)
}

func beneficiary(appID, primaryID string) *models.Beneficiary {
	dob := time.Date(1990, 8, 14, 0, 0, 0, 0, time.UTC)
	return &models.Beneficiary{
		ApplicationID: appID,
		SessionID:     "sess-" + appID,
		PrimaryID:     primaryID,
		FullName:      "Sunita Rao",
		DateOfBirth:   &dob,
		AnnualIncome:  decimal.NewFromInt(180000),
		SubmittedAt:   time.Now().UTC(),
	}
}

func (s *PostgresStoreSuite) TestCommitWritesEverything() {
	ctx := context.Background()
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.SaveBeneficiary(ctx, beneficiary("APP-1", "482177301294")); err != nil {
			return err
		}
		return s.store.SaveDocument(ctx, &models.DocumentRecord{
			ApplicationID: "APP-1", Kind: "pan_card", Reference: "s3://bucket/p",
			Fields: map[string]string{"pan_number": "ABCDE1234F"}, UploadedAt: time.Now().UTC(),
		})
	})
	s.Require().NoError(err)

	filing, err := s.store.FindByPrimaryID(ctx, "482177301294")
	s.Require().NoError(err)
	s.Equal("APP-1", filing.ApplicationID)

	var count int
	s.Require().NoError(s.pg.DB.QueryRow(`SELECT count(*) FROM application_documents WHERE application_id = 'APP-1'`).Scan(&count))
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestRollbackWritesNothing() {
	ctx := context.Background()
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.SaveBeneficiary(ctx, beneficiary("APP-2", "111122223333")); err != nil {
			return err
		}
		return errors.New("document write failed")
	})
	s.Require().Error(err)

	_, err = s.store.FindByPrimaryID(ctx, "111122223333")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicatePrimaryIDIsConflict() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveBeneficiary(ctx, beneficiary("APP-3", "999988887777")))

	err := s.store.SaveBeneficiary(ctx, beneficiary("APP-4", "999988887777"))
	s.ErrorIs(err, sentinel.ErrConflict)

	filing, err := s.store.FindByPrimaryID(ctx, "999988887777")
	s.Require().NoError(err)
	s.Equal("APP-3", filing.ApplicationID)
	s.Equal("sess-APP-3", filing.SessionID)
}

//go:build integration

package linkage_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"enrollment/internal/evidence/linkage"
	"enrollment/pkg/testutil/containers"
)

type PostgresRegistrySuite struct {
	suite.Suite
	registry *linkage.PostgresRegistry
}

func TestPostgresRegistrySuite(t *testing.T) {
	suite.Run(t, new(PostgresRegistrySuite))
}

func (s *PostgresRegistrySuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T(), linkage.Schema)
	pool, err := linkage.Connect(context.Background(), pg.DSN)
	s.Require().NoError(err)
	s.T().Cleanup(pool.Close)
	s.registry = linkage.NewPostgresRegistry(pool, 5*time.Second)
}

func (s *PostgresRegistrySuite) TestLinkage() {
	ctx := context.Background()
	s.Require().NoError(s.registry.Link(ctx, "482177301294", "ABCDE1234F"))
	s.Require().NoError(s.registry.Link(ctx, "482177301294", "ABCDE1234F"))

	linked, err := s.registry.IsLinked(ctx, "482177301294", "ABCDE1234F")
	s.Require().NoError(err)
	s.True(linked)

	linked, err = s.registry.IsLinked(ctx, "482177301294", "ZZZZZ9999Z")
	s.Require().NoError(err)
	s.False(linked)
}

func (s *PostgresRegistrySuite) TestKnownIncome() {
	ctx := context.Background()
	_, found, err := s.registry.LookupKnownIncome(ctx, "000011112222")
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(s.registry.RecordIncome(ctx, "000011112222", decimal.NewFromInt(310000), "itr"))
	amount, found, err := s.registry.LookupKnownIncome(ctx, "000011112222")
	s.Require().NoError(err)
	s.True(found)
	s.True(amount.Equal(decimal.NewFromInt(310000)), amount.String())
}

//go:build integration

package consumer_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	audit "enrollment/pkg/platform/audit"
	"enrollment/pkg/platform/audit/consumer"
	"enrollment/pkg/platform/audit/publishers/kafka"
	auditpostgres "enrollment/pkg/platform/audit/store/postgres"
	"enrollment/pkg/testutil/containers"
)

type ConsumerSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
	pg     *containers.PostgresContainer
}

func TestConsumerSuite(t *testing.T) {
	suite.Run(t, new(ConsumerSuite))
}

func (s *ConsumerSuite) SetupSuite() {
	s.broker = containers.NewRedpandaContainer(s.T())
	s.pg = containers.NewPostgresContainer(s.T(), auditpostgres.Schema)
}

func (s *ConsumerSuite) TestPublishedEventsReachTheTable() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	const topic = "intake.audit.materialize"

	pub, err := kafka.New([]string{s.broker.Broker}, topic)
	s.Require().NoError(err)
	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(pub.Emit(ctx, audit.Event{Action: audit.EventConsentGranted, SessionID: "sess-7"}))
	s.Require().NoError(pub.Emit(ctx, audit.Event{Action: audit.EventApplicationSubmitted, SessionID: "sess-7", ApplicationID: "APP-7"}))
	s.Require().NoError(pub.Close(ctx))

	store := auditpostgres.New(s.pg.DB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := consumer.New([]string{s.broker.Broker}, topic, "materializer-test", store, logger)
	s.Require().NoError(err)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- c.Run(runCtx) }()

	s.Eventually(func() bool {
		trail, err := store.ListBySession(ctx, "sess-7")
		return err == nil && len(trail) == 2
	}, 30*time.Second, 200*time.Millisecond)

	stop()
	s.Require().NoError(<-done)

	trail, err := store.ListBySession(ctx, "sess-7")
	s.Require().NoError(err)
	var submitted *audit.Event
	for i := range trail {
		if trail[i].Action == audit.EventApplicationSubmitted {
			submitted = &trail[i]
		}
	}
	s.Require().NotNil(submitted)
	s.Equal("APP-7", submitted.ApplicationID)
	s.Equal(audit.CategoryCompliance, submitted.Category)
}

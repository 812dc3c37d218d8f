//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "enrollment/pkg/platform/audit"
	"enrollment/pkg/testutil/containers"
)

type PublisherSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	s.broker = containers.NewRedpandaContainer(s.T())
}

func (s *PublisherSuite) TestEmitComplianceEvent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := New([]string{s.broker.Broker}, "intake.audit.test")
	s.Require().NoError(err)
	defer p.Close(ctx)
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(p.EnsureTopic(ctx, 1, 1), "second bootstrap must tolerate an existing topic")

	s.Require().NoError(p.Emit(ctx, audit.Event{
		Action:        audit.EventApplicationSubmitted,
		SessionID:     "sess-1",
		ApplicationID: "APP-20260101-ABCDEF12",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.Broker),
		kgo.ConsumeTopics("intake.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	var got audit.Event
	require.NoError(s.T(), json.Unmarshal(records[0].Value, &got))
	s.Equal(audit.EventApplicationSubmitted, got.Action)
	s.Equal(audit.CategoryCompliance, got.Category)
	s.Equal("sess-1", string(records[0].Key))
}

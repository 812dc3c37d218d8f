// Package consumer materializes the Kafka audit topic into a queryable store.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "enrollment/pkg/platform/audit"
)

// Sink stores events under a caller-chosen id; repeated ids must be ignored.
type Sink interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// eventNamespace seeds the deterministic ids derived from record offsets.
var eventNamespace = uuid.MustParse("6f1c4f9e-5a0b-4d7e-9a39-2f1d3c8b7e10")

type Consumer struct {
	client *kgo.Client
	sink   Sink
	logger *slog.Logger
}

// New joins group and consumes topic from the earliest uncommitted offset.
func New(brokers []string, topic, group string, sink Sink, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("audit consumer requires at least one broker")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, sink: sink, logger: logger}, nil
}

// Run polls until ctx is done. Offsets are committed only after every record
// of a fetch is stored, so a crash replays rather than loses events.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		var fetchErr error
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "audit fetch failed", "topic", topic, "partition", partition, "error", err)
			fetchErr = err
		})
		if fetchErr != nil {
			continue
		}

		var stored int
		var handleErr error
		fetches.EachRecord(func(rec *kgo.Record) {
			if handleErr != nil {
				return
			}
			if handleErr = c.Handle(ctx, rec); handleErr == nil {
				stored++
			}
		})
		if handleErr != nil {
			return fmt.Errorf("store audit record: %w", handleErr)
		}
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			return fmt.Errorf("commit audit offsets: %w", err)
		}
		if stored > 0 {
			c.logger.DebugContext(ctx, "audit records stored", "count", stored)
		}
	}
}

// Handle stores one record. Malformed payloads are logged and skipped so they
// cannot block the partition.
func (c *Consumer) Handle(ctx context.Context, rec *kgo.Record) error {
	event, err := Decode(rec.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "skipping malformed audit record",
			"topic", rec.Topic, "partition", rec.Partition, "offset", rec.Offset, "error", err)
		return nil
	}
	return c.sink.AppendWithID(ctx, RecordID(rec.Topic, rec.Partition, rec.Offset), event)
}

// Decode parses a published audit event.
func Decode(value []byte) (audit.Event, error) {
	var event audit.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return audit.Event{}, fmt.Errorf("decode audit event: %w", err)
	}
	if event.Action == "" || event.SessionID == "" {
		return audit.Event{}, errors.New("audit event without action or session")
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	return event, nil
}

// RecordID is stable for a record position, so replays hit the same row.
func RecordID(topic string, partition int32, offset int64) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, []byte(topic+"/"+strconv.Itoa(int(partition))+"/"+strconv.FormatInt(offset, 10)))
}

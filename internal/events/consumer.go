package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/observability"
)

// Handler processes one created listing. A returned error is retried.
type Handler func(ctx context.Context, l *listing.Listing) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	maxAttempts = 3
	maxBackoff  = 30 * time.Second
)

type Consumer struct {
	reader  messageReader
	handle  Handler
	log     logrus.FieldLogger
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration)
}

func NewConsumer(brokers []string, topic, groupID string, handle Handler, log logrus.FieldLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: 0,
		StartOffset:    kafka.LastOffset,
	})
	return newConsumer(r, handle, log)
}

func newConsumer(r messageReader, handle Handler, log logrus.FieldLogger) *Consumer {
	return &Consumer{reader: r, handle: handle, log: log, backoff: time.Second, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Run consumes until ctx is cancelled. Offsets are committed after a message
// is handled or given up on, so delivery is at least once.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.backoff
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.WithError(err).WithField("backoff", backoff.String()).Warn("kafka fetch failed")
			c.sleep(ctx, backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = c.backoff

		c.dispatch(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.log.WithError(err).Warn("kafka commit failed, message may be redelivered")
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, m kafka.Message) {
	ev, err := decode(m.Value)
	if err != nil {
		observability.EventsConsumed.WithLabelValues("invalid").Inc()
		c.log.WithError(err).WithField("key", string(m.Key)).Warn("dropping invalid listing event")
		return
	}

	fields := logrus.Fields{"listingId": ev.Listing.ID, "offset": m.Offset}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = c.handle(ctx, &ev.Listing)
		if err == nil {
			observability.EventsConsumed.WithLabelValues("ok").Inc()
			return
		}
		c.log.WithError(err).WithFields(fields).WithField("attempt", attempt).Warn("listing event handler failed")
		if attempt < maxAttempts {
			c.sleep(ctx, time.Duration(attempt)*c.backoff)
		}
		if ctx.Err() != nil {
			return
		}
	}
	observability.EventsConsumed.WithLabelValues("failed").Inc()
	c.log.WithError(err).WithFields(fields).Error("giving up on listing event")
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Package events carries listing lifecycle events over Kafka from the API to
// the alert worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/domain/listing"
)

const TypeListingCreated = "listing.created"

// ListingEvent is the wire format. Listing is serialized with its public
// JSON shape, so private contact fields never leave the API.
type ListingEvent struct {
	Type       string          `json:"type"`
	Listing    listing.Listing `json:"listing"`
	OccurredAt time.Time       `json:"occurredAt"`
}

func encode(l *listing.Listing, at time.Time) ([]byte, error) {
	return json.Marshal(ListingEvent{Type: TypeListingCreated, Listing: *l, OccurredAt: at.UTC()})
}

func decode(b []byte) (*ListingEvent, error) {
	var ev ListingEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return nil, err
	}
	if ev.Type != TypeListingCreated || ev.Listing.ID == "" {
		return nil, fmt.Errorf("unexpected event %q for listing %q", ev.Type, ev.Listing.ID)
	}
	return &ev, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements listing.Publisher.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewPublisher(brokers []string, topic string, log logrus.FieldLogger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, timeout: 2 * time.Second, log: log}
}

func (p *Publisher) ListingCreated(ctx context.Context, l *listing.Listing) error {
	b, err := encode(l, time.Now())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(l.ID), Value: b}); err != nil {
		return fmt.Errorf("publish listing %s: %w", l.ID, err)
	}
	p.log.WithField("listingId", l.ID).Debug("listing event published")
	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

var _ listing.Publisher = (*Publisher)(nil)

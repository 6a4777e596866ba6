package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/logging"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublisherOmitsPrivateContact(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, timeout: time.Second, log: logging.Discard()}
	l := &listing.Listing{
		ID:              "r1",
		OwnerID:         "dan",
		OriginCity:      "Göteborg",
		DestinationCity: "Stockholm",
		ContactPhone:    "0703333333",
		ContactEmail:    "dan@example.se",
	}
	if err := p.ListingCreated(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "r1" {
		t.Fatalf("messages %+v", w.msgs)
	}
	body := string(w.msgs[0].Value)
	if strings.Contains(body, "0703333333") || strings.Contains(body, "dan@example.se") {
		t.Fatalf("contact leaked: %s", body)
	}

	ev, err := decode(w.msgs[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Listing.ID != "r1" || ev.Listing.OriginCity != "Göteborg" {
		t.Fatalf("decoded %+v", ev.Listing)
	}

	w.err = errors.New("broker down")
	if err := p.ListingCreated(context.Background(), l); err == nil {
		t.Fatal("expected error")
	}
}

// scriptedReader hands out queued results and cancels the run when drained.
type scriptedReader struct {
	mu        sync.Mutex
	results   []fetchResult
	committed []int64
	cancel    context.CancelFunc
}

type fetchResult struct {
	msg kafka.Message
	err error
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next.msg, next.err
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func eventMessage(t *testing.T, offset int64, id string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ListingEvent{Type: TypeListingCreated, Listing: listing.Listing{ID: id}})
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Offset: offset, Key: []byte(id), Value: b}
}

func TestConsumerRetriesAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedReader{cancel: cancel, results: []fetchResult{
		{err: errors.New("coordinator not available")},
		{msg: eventMessage(t, 1, "r1")},
		{msg: kafka.Message{Offset: 2, Value: []byte("not json")}},
		{msg: eventMessage(t, 3, "r3")},
	}}

	calls := map[string]int{}
	var slept []time.Duration
	c := newConsumer(r, func(_ context.Context, l *listing.Listing) error {
		calls[l.ID]++
		if l.ID == "r1" && calls[l.ID] < 2 {
			return errors.New("firestore unavailable")
		}
		if l.ID == "r3" {
			return errors.New("always failing")
		}
		return nil
	}, logging.Discard())
	c.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	if err := c.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if calls["r1"] != 2 {
		t.Fatalf("r1 handled %d times, want 2", calls["r1"])
	}
	if calls["r3"] != maxAttempts {
		t.Fatalf("r3 handled %d times, want %d", calls["r3"], maxAttempts)
	}
	if want := []int64{1, 2, 3}; len(r.committed) != len(want) {
		t.Fatalf("committed %v, want %v", r.committed, want)
	}
	if len(slept) == 0 || slept[0] != time.Second {
		t.Fatalf("expected fetch backoff first, slept %v", slept)
	}
}

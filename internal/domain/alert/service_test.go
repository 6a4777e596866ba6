package alert

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/logging"
	"vagvanner/backend/internal/notify"
)

type memStore struct {
	mu   sync.Mutex
	seq  int
	docs map[string]Alert
}

func newMemStore() *memStore { return &memStore{docs: map[string]Alert{}} }

func (m *memStore) Create(_ context.Context, a *Alert) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("a%d", m.seq)
	cp := *a
	cp.ID = id
	m.docs[id] = cp
	return id, nil
}

func (m *memStore) Update(_ context.Context, id string, fn func(*Alert) error) (*Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: alert %s", ErrNotFound, id)
	}
	if err := fn(&a); err != nil {
		return nil, err
	}
	m.docs[id] = a
	return &a, nil
}

func (m *memStore) ListByUser(_ context.Context, uid string) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Alert
	for _, a := range m.docs {
		if a.UserID == uid {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ListActive(_ context.Context) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Alert
	for _, a := range m.docs {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingNotifier) Notify(_ context.Context, m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return nil
}

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) // a Monday

func newTestService(store Store, n notify.Notifier) *Service {
	return NewService(store, n, logging.Discard(), Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
}

var pia = user.CurrentUser{UID: "pia", Email: "pia@example.se"}

func gbgSthlm() listing.Listing {
	return listing.Listing{
		ID:              "r1",
		OwnerID:         "dan",
		Role:            listing.RoleDriver,
		OriginCity:      "Göteborg",
		DestinationCity: "Stockholm",
		Waypoints:       []string{"Jönköping"},
		Date:            "2026-06-05",
		Time:            "08:30",
		Status:          listing.StatusActive,
	}
}

func TestMatches(t *testing.T) {
	l := gbgSthlm()
	cases := []struct {
		name string
		a    Alert
		want bool
	}{
		{"global", Alert{Active: true, Global: true}, true},
		{"global wrong role", Alert{Active: true, Global: true, Role: listing.RolePassenger}, false},
		{"inactive", Alert{Global: true}, false},
		{"folded origin", Alert{Active: true, OriginKey: "goteborg"}, true},
		{"waypoint as origin", Alert{Active: true, OriginKey: "jonkoping", DestinationKey: "stockholm"}, true},
		{"wrong destination", Alert{Active: true, OriginKey: "goteborg", DestinationKey: "malmo"}, false},
		{"same date", Alert{Active: true, DestinationKey: "stockholm", Date: "2026-06-05"}, true},
		{"other date", Alert{Active: true, DestinationKey: "stockholm", Date: "2026-06-06"}, false},
		{"inside window", Alert{Active: true, OriginKey: "goteborg", TimeFrom: "08:00", TimeTo: "09:00"}, true},
		{"window boundary", Alert{Active: true, OriginKey: "goteborg", TimeFrom: "08:30", TimeTo: "08:30"}, true},
		{"too early", Alert{Active: true, OriginKey: "goteborg", TimeFrom: "09:00"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Matches(c.a, l, time.UTC); got != c.want {
				t.Fatalf("Matches = %v, want %v", got, c.want)
			}
		})
	}

	recurring := gbgSthlm()
	recurring.Date = ""
	recurring.Recurring = true
	recurring.Weekdays = []int{5} // Friday
	if !Matches(Alert{Active: true, OriginKey: "goteborg", Date: "2026-06-05"}, recurring, time.UTC) {
		t.Fatal("recurring listing should match its weekday")
	}

	cancelled := gbgSthlm()
	cancelled.Status = listing.StatusCancelled
	if Matches(Alert{Active: true, Global: true}, cancelled, time.UTC) {
		t.Fatal("cancelled listing must not match")
	}
}

func TestCreateAndLimit(t *testing.T) {
	svc := newTestService(newMemStore(), nil)
	ctx := context.Background()

	a, err := svc.Create(ctx, pia, CreateInput{Origin: "  Göteborg ", Destination: "Stockholm", Role: "Driver"})
	if err != nil {
		t.Fatal(err)
	}
	if a.OriginKey != "goteborg" || a.Origin != "Göteborg" || !a.Active || a.Role != listing.RoleDriver {
		t.Fatalf("got %+v", a)
	}

	for i := 1; i < MaxActive; i++ {
		if _, err := svc.Create(ctx, pia, CreateInput{Global: true}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Create(ctx, pia, CreateInput{Global: true}); !IsErrLimitReached(err) {
		t.Fatalf("expected limit, got %v", err)
	}

	if _, err := svc.Deactivate(ctx, user.CurrentUser{UID: "eve"}, a.ID); !IsErrUnauthorized(err) {
		t.Fatalf("foreign deactivate: %v", err)
	}
	if _, err := svc.Deactivate(ctx, pia, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, pia, CreateInput{Global: true}); err != nil {
		t.Fatalf("slot should be free after deactivate: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMemStore(), nil)
	ctx := context.Background()
	bad := []CreateInput{
		{},
		{Origin: "Umeå", Date: "2026-05-31"},
		{Origin: "Umeå", Date: "05/06"},
		{Origin: "Umeå", TimeFrom: "25:00"},
		{Origin: "Umeå", TimeFrom: "10:00", TimeTo: "09:00"},
		{Global: true, Role: "pilot"},
	}
	for _, in := range bad {
		if _, err := svc.Create(ctx, pia, in); !IsErrBadRequest(err) {
			t.Errorf("%+v: expected bad request, got %v", in, err)
		}
	}
	if _, err := svc.Create(ctx, user.CurrentUser{}, CreateInput{Global: true}); !IsErrUnauthorized(err) {
		t.Fatalf("anonymous: %v", err)
	}
}

func TestDispatchSkipsOwnerAndDedupes(t *testing.T) {
	store := newMemStore()
	notes := &recordingNotifier{}
	svc := newTestService(store, notes)
	ctx := context.Background()

	mustCreate := func(uid string, in CreateInput) {
		t.Helper()
		if _, err := svc.Create(ctx, user.CurrentUser{UID: uid}, in); err != nil {
			t.Fatal(err)
		}
	}
	mustCreate("pia", CreateInput{Origin: "Göteborg"})
	mustCreate("pia", CreateInput{Global: true})
	mustCreate("dan", CreateInput{Global: true})
	mustCreate("eve", CreateInput{Origin: "Malmö"})
	mustCreate("ola", CreateInput{Destination: "stockholm", Role: listing.RoleDriver})

	l := gbgSthlm()
	n, err := svc.Dispatch(ctx, &l)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || len(notes.msgs) != 2 {
		t.Fatalf("notified %d (%d messages), want 2", n, len(notes.msgs))
	}
	for _, m := range notes.msgs {
		if m.UserID == "dan" || m.UserID == "eve" {
			t.Fatalf("unexpected recipient %s", m.UserID)
		}
		if m.Type != notify.TypeAlertMatch || m.Data["listingId"] != "r1" {
			t.Fatalf("message %+v", m)
		}
	}
}

package booking

import (
	"testing"
	"time"
)

func TestIsUnlockedIsExhaustive(t *testing.T) {
	want := map[Status]bool{
		StatusRequested:  false,
		StatusAuthorized: true,
		StatusCaptured:   true,
		StatusPaid:       true,
		StatusVoided:     false,
		StatusCancelled:  false,
	}
	if len(want) != len(AllStatuses) {
		t.Fatalf("table covers %d statuses, have %d", len(want), len(AllStatuses))
	}
	for _, s := range AllStatuses {
		if got := s.IsUnlocked(); got != want[s] {
			t.Errorf("%s.IsUnlocked() = %v, want %v", s, got, want[s])
		}
	}
	if Status("confirmed").IsUnlocked() {
		t.Error("unknown status must not unlock")
	}
}

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusRequested, StatusAuthorized, true},
		{StatusRequested, StatusCaptured, true},
		{StatusRequested, StatusPaid, true},
		{StatusRequested, StatusCancelled, true},
		{StatusRequested, StatusVoided, false},
		{StatusAuthorized, StatusCaptured, true},
		{StatusAuthorized, StatusVoided, true},
		{StatusAuthorized, StatusCancelled, true},
		{StatusAuthorized, StatusPaid, false},
		{StatusCaptured, StatusVoided, false},
		{StatusCaptured, StatusCancelled, false},
		{StatusPaid, StatusCancelled, false},
		{StatusCancelled, StatusRequested, false},
		{StatusVoided, StatusAuthorized, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}

	for _, s := range []Status{StatusCaptured, StatusPaid, StatusVoided, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus(" Authorized "); err != nil || s != StatusAuthorized {
		t.Fatalf("got %q, %v", s, err)
	}
	if _, err := ParseStatus("pending"); !IsErrBadRequest(err) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestReportWindowBoundaryIsInclusive(t *testing.T) {
	unlocked := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	end := ReportWindowEnd(unlocked)
	b := &Booking{Status: StatusAuthorized, ContactUnlockedAt: &unlocked, ReportWindowEndsAt: &end}

	if !end.Equal(unlocked.Add(48 * time.Hour)) {
		t.Fatalf("window end = %v", end)
	}
	if !CanReport(b, unlocked) {
		t.Error("should be reportable right after unlock")
	}
	if !CanReport(b, end) {
		t.Error("should be reportable exactly at window end")
	}
	if CanReport(b, end.Add(time.Millisecond)) {
		t.Error("should not be reportable after window end")
	}

	b.Reported = true
	if CanReport(b, unlocked) {
		t.Error("reported booking cannot be reported again")
	}

	b.Reported = false
	b.Status = StatusVoided
	if CanReport(b, unlocked) {
		t.Error("voided booking is not reportable")
	}
}

func TestAppendMessageKeepsNewest(t *testing.T) {
	var msgs []Message
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxMessages+5; i++ {
		m, err := newMessage("u", "", "hej", now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatal(err)
		}
		msgs = appendMessage(msgs, m)
	}
	if len(msgs) != MaxMessages {
		t.Fatalf("len = %d, want %d", len(msgs), MaxMessages)
	}
	if want := now.Add(5 * time.Second); !msgs[0].CreatedAt.Equal(want) {
		t.Fatalf("oldest kept = %v, want %v", msgs[0].CreatedAt, want)
	}
}

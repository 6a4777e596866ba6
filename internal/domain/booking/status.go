package booking

import (
	"fmt"
	"strings"
)

// Status is the closed set of booking states. The literals are the stored
// values and must not change.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusAuthorized Status = "authorized"
	StatusCaptured   Status = "captured"
	StatusPaid       Status = "paid"
	StatusVoided     Status = "voided"
	StatusCancelled  Status = "cancelled"
)

var AllStatuses = []Status{
	StatusRequested,
	StatusAuthorized,
	StatusCaptured,
	StatusPaid,
	StatusVoided,
	StatusCancelled,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range AllStatuses {
		if st == v {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown booking status %q", ErrBadRequest, s)
}

// IsUnlocked reports whether contact details may be disclosed. Voided means
// the held funds were released, so it is not unlocked.
func (s Status) IsUnlocked() bool {
	switch s {
	case StatusAuthorized, StatusCaptured, StatusPaid:
		return true
	case StatusRequested, StatusVoided, StatusCancelled:
		return false
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

var transitions = map[Status][]Status{
	StatusRequested:  {StatusAuthorized, StatusCaptured, StatusPaid, StatusCancelled},
	StatusAuthorized: {StatusCaptured, StatusVoided, StatusCancelled},
	StatusCaptured:   {},
	StatusPaid:       {},
	StatusVoided:     {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func transition(b *Booking, to Status) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: cannot move booking from %s to %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	return nil
}

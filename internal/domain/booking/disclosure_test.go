package booking

import (
	"testing"
	"time"

	"vagvanner/backend/internal/domain/user"
)

func contactBooking(t *testing.T, mode ShareMode) *Booking {
	t.Helper()
	b := &Booking{
		ID:             "contact_unlock_r1_pia",
		Type:           TypeContactUnlock,
		RequesterID:    "pia",
		CounterpartyID: "dan",
		RequesterName:  "Pia",
		Status:         StatusRequested,
	}
	if err := ApplyUnlock(b, DirectUnlock("pia", mode, user.Contact{Name: "Pia", Phone: "0702222222", Email: "pia@example.se"}), time.Now()); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDiscloseContactUnlock(t *testing.T) {
	listingContact := user.Contact{Name: "Dan", Phone: "0703333333", Email: "dan@example.se"}

	t.Run("requester sees listing contact", func(t *testing.T) {
		d := Disclose(contactBooking(t, ShareNone), "pia", listingContact)
		if d.Visibility != VisibilityRevealed || d.Contact == nil || d.Contact.Phone != "0703333333" {
			t.Fatalf("got %+v", d)
		}
	})

	t.Run("share none shows pending label", func(t *testing.T) {
		d := Disclose(contactBooking(t, ShareNone), "dan", listingContact)
		if d.Visibility != VisibilityPending || d.Label != PendingLabel || d.Contact != nil {
			t.Fatalf("got %+v", d)
		}
	})

	t.Run("share phone only", func(t *testing.T) {
		d := Disclose(contactBooking(t, SharePhone), "dan", listingContact)
		if d.Visibility != VisibilityRevealed || d.Contact.Phone != "0702222222" || d.Contact.Email != "" {
			t.Fatalf("got %+v", d.Contact)
		}
	})

	t.Run("share both", func(t *testing.T) {
		d := Disclose(contactBooking(t, ShareBoth), "dan", listingContact)
		if d.Contact.Phone == "" || d.Contact.Email != "pia@example.se" {
			t.Fatalf("got %+v", d.Contact)
		}
	})

	t.Run("outsider sees nothing", func(t *testing.T) {
		d := Disclose(contactBooking(t, ShareBoth), "eve", listingContact)
		if d.Visibility != VisibilityNone || d.Contact != nil {
			t.Fatalf("got %+v", d)
		}
	})
}

func TestDiscloseRequiresUnlockedStatus(t *testing.T) {
	for _, s := range []Status{StatusRequested, StatusVoided, StatusCancelled} {
		b := contactBooking(t, ShareBoth)
		b.Status = s
		if d := Disclose(b, "dan", user.Contact{}); d.Visibility != VisibilityNone {
			t.Errorf("%s: got %+v", s, d)
		}
		if d := Disclose(b, "pia", user.Contact{Phone: "1"}); d.Visibility != VisibilityNone {
			t.Errorf("%s requester: got %+v", s, d)
		}
	}
}

func TestDiscloseSeatBookingShowsSnapshots(t *testing.T) {
	b := &Booking{
		Type:              TypeSeatBooking,
		RequesterID:       "pia",
		CounterpartyID:    "dan",
		RequesterName:     "Pia",
		RequesterPhone:    "0702222222",
		CounterpartyName:  "Dan",
		CounterpartyEmail: "dan@example.se",
		Status:            StatusPaid,
	}
	if d := Disclose(b, "dan", user.Contact{}); d.Contact == nil || d.Contact.Phone != "0702222222" {
		t.Fatalf("owner view: %+v", d)
	}
	if d := Disclose(b, "pia", user.Contact{}); d.Contact == nil || d.Contact.Email != "dan@example.se" {
		t.Fatalf("requester view: %+v", d)
	}
}

package booking

import "vagvanner/backend/internal/domain/user"

type Visibility string

const (
	VisibilityNone     Visibility = "none"
	VisibilityPending  Visibility = "pending"
	VisibilityRevealed Visibility = "revealed"
)

// PendingLabel is shown when the other party unlocked but chose not to share.
const PendingLabel = "De kontaktar dig"

type Disclosure struct {
	Visibility Visibility    `json:"visibility"`
	Label      string        `json:"label,omitempty"`
	Contact    *user.Contact `json:"contact,omitempty"`
}

var noAccess = Disclosure{Visibility: VisibilityNone}

// Disclose decides what contact data viewer may see on b. listingContact is
// the listing owner's current listing-level contact, read at view time.
func Disclose(b *Booking, viewer string, listingContact user.Contact) Disclosure {
	if b == nil || !b.IsParty(viewer) {
		return noAccess
	}
	if !b.Status.IsUnlocked() {
		return noAccess
	}

	isRequester := viewer == b.RequesterID

	switch b.Type {
	case TypeContactUnlock:
		if isRequester {
			return revealed(listingContact)
		}
		if b.SharedPhone == "" && b.SharedEmail == "" {
			return Disclosure{Visibility: VisibilityPending, Label: PendingLabel}
		}
		return revealed(user.Contact{Name: b.RequesterName, Phone: b.SharedPhone, Email: b.SharedEmail})

	case TypeSeatBooking:
		if isRequester {
			return revealed(b.CounterpartyContact())
		}
		return revealed(b.RequesterContact())
	}
	return noAccess
}

func revealed(c user.Contact) Disclosure {
	return Disclosure{Visibility: VisibilityRevealed, Contact: &c}
}

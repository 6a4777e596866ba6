package booking

import (
	"fmt"
	"time"

	"vagvanner/backend/internal/domain/payment"
	"vagvanner/backend/internal/domain/user"
)

type ShareMode string

const (
	ShareBoth  ShareMode = "both"
	SharePhone ShareMode = "phone"
	ShareEmail ShareMode = "email"
	ShareNone  ShareMode = "none"
)

func ParseShareMode(s string) (ShareMode, error) {
	switch m := ShareMode(s); m {
	case "":
		return ShareBoth, nil
	case ShareBoth, SharePhone, ShareEmail, ShareNone:
		return m, nil
	}
	return "", fmt.Errorf("%w: shareMode must be both, phone, email or none", ErrBadRequest)
}

// Share returns the subset of c elected by mode.
func Share(mode ShareMode, c user.Contact) (phone, email string) {
	switch mode {
	case ShareBoth:
		return c.Phone, c.Email
	case SharePhone:
		return c.Phone, ""
	case ShareEmail:
		return "", c.Email
	}
	return "", ""
}

const (
	ViaPayment = "payment"
	ViaDirect  = "direct"
)

// Unlock describes how a booking is being unlocked. Build it with
// PaymentUnlock or DirectUnlock and apply it with ApplyUnlock.
type Unlock struct {
	Via       string
	By        string
	Status    Status
	ShareMode ShareMode
	Contact   user.Contact
	Payment   *PaymentRecord
}

// PaymentUnlock unlocks against a provider authorization. A held payment
// leaves the booking authorized, an already captured one leaves it captured.
func PaymentUnlock(by string, auth *payment.Authorization, mode ShareMode, contact user.Contact, now time.Time) Unlock {
	st := StatusAuthorized
	rec := &PaymentRecord{
		AuthorizationID: auth.ID,
		Status:          auth.Status,
		Amount:          auth.Amount,
		Payer:           auth.Payer,
		Raw:             auth.Raw,
		AuthorizedAt:    now,
	}
	if auth.Captured() {
		st = StatusCaptured
		rec.CapturedAt = &now
	}
	return Unlock{Via: ViaPayment, By: by, Status: st, ShareMode: mode, Contact: contact, Payment: rec}
}

// DirectUnlock is the no-payment path.
func DirectUnlock(by string, mode ShareMode, contact user.Contact) Unlock {
	return Unlock{Via: ViaDirect, By: by, Status: StatusPaid, ShareMode: mode, Contact: contact}
}

// ApplyUnlock is the single unlock transition. It refuses a booking that is
// already unlocked, then records the unlock time, the report window and the
// shared contact fields.
func ApplyUnlock(b *Booking, u Unlock, now time.Time) error {
	if b.Status.IsUnlocked() {
		return fmt.Errorf("%w: booking %s is %s", ErrAlreadyUnlocked, b.ID, b.Status)
	}
	if err := transition(b, u.Status); err != nil {
		return err
	}

	at := now.UTC()
	end := ReportWindowEnd(at)
	b.ContactUnlockedAt = &at
	b.ReportWindowEndsAt = &end
	b.UnlockedVia = u.Via
	b.UnlockedBy = u.By
	b.Payment = u.Payment
	if u.Via == ViaDirect {
		b.Commission = 0
	}

	// seat bookings disclose the requester snapshot unconditionally
	if b.Type == TypeContactUnlock {
		b.ShareMode = u.ShareMode
		b.SharedPhone, b.SharedEmail = Share(u.ShareMode, u.Contact)
	}
	b.UpdatedAt = at
	return nil
}

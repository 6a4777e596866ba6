package booking

import (
	"strings"
	"time"

	"vagvanner/backend/internal/domain/payment"
	"vagvanner/backend/internal/domain/user"
)

const Collection = "bookings"

type Type string

const (
	TypeSeatBooking   Type = "seat_booking"
	TypeContactUnlock Type = "contact_unlock"
)

func (t Type) Valid() bool { return t == TypeSeatBooking || t == TypeContactUnlock }

// ID derives the booking id from its type, listing and requester, so a
// second create for the same triple lands on the same document.
func ID(t Type, listingID, requesterID string) string {
	return string(t) + "_" + listingID + "_" + requesterID
}

type Message struct {
	ID          string    `firestore:"id" json:"id"`
	SenderUID   string    `firestore:"senderUid" json:"senderUid"`
	SenderEmail string    `firestore:"senderEmail,omitempty" json:"senderEmail,omitempty"`
	Text        string    `firestore:"text" json:"text"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	Read        bool      `firestore:"read" json:"read"`
}

// PaymentRecord is the provider authorization as received at unlock time.
type PaymentRecord struct {
	AuthorizationID string         `firestore:"authorizationId" json:"authorizationId"`
	Status          string         `firestore:"status" json:"status"`
	Amount          payment.Amount `firestore:"amount" json:"amount"`
	Payer           payment.Payer  `firestore:"payer" json:"payer"`
	Raw             map[string]any `firestore:"raw,omitempty" json:"-"`
	AuthorizedAt    time.Time      `firestore:"authorizedAt" json:"authorizedAt"`
	CapturedAt      *time.Time     `firestore:"capturedAt,omitempty" json:"capturedAt,omitempty"`
	VoidedAt        *time.Time     `firestore:"voidedAt,omitempty" json:"voidedAt,omitempty"`
}

type Booking struct {
	ID             string `firestore:"-" json:"id"`
	Type           Type   `firestore:"bookingType" json:"bookingType"`
	RideID         string `firestore:"rideId" json:"rideId"`
	RequesterID    string `firestore:"userId" json:"userId"`
	CounterpartyID string `firestore:"counterpartyId" json:"counterpartyId"`
	Status         Status `firestore:"status" json:"status"`

	// trip terms as agreed when the booking was created; never resynced
	Origin      string `firestore:"origin" json:"origin"`
	Destination string `firestore:"destination" json:"destination"`
	Date        string `firestore:"date,omitempty" json:"date,omitempty"`
	Time        string `firestore:"time,omitempty" json:"time,omitempty"`

	RequesterName     string `firestore:"requesterName,omitempty" json:"-"`
	RequesterEmail    string `firestore:"requesterEmail,omitempty" json:"-"`
	RequesterPhone    string `firestore:"requesterPhone,omitempty" json:"-"`
	CounterpartyName  string `firestore:"counterpartyName,omitempty" json:"-"`
	CounterpartyEmail string `firestore:"counterpartyEmail,omitempty" json:"-"`
	CounterpartyPhone string `firestore:"counterpartyPhone,omitempty" json:"-"`

	Seats int   `firestore:"seats" json:"seats"`
	Price int64 `firestore:"price" json:"price"`
	// Commission is the platform fee in minor units.
	Commission int64  `firestore:"commission" json:"commission"`
	Currency   string `firestore:"currency" json:"currency"`

	Messages []Message `firestore:"messages" json:"messages"`

	ShareMode   ShareMode `firestore:"shareMode,omitempty" json:"shareMode,omitempty"`
	SharedPhone string    `firestore:"driverPhoneShared,omitempty" json:"-"`
	SharedEmail string    `firestore:"driverEmailShared,omitempty" json:"-"`

	Payment            *PaymentRecord `firestore:"payment,omitempty" json:"payment,omitempty"`
	UnlockedVia        string         `firestore:"unlockedVia,omitempty" json:"unlockedVia,omitempty"`
	UnlockedBy         string         `firestore:"unlockedBy,omitempty" json:"unlockedBy,omitempty"`
	ContactUnlockedAt  *time.Time     `firestore:"contactUnlockedAt,omitempty" json:"contactUnlockedAt,omitempty"`
	ReportWindowEndsAt *time.Time     `firestore:"reportWindowEndsAt,omitempty" json:"reportWindowEndsAt,omitempty"`
	Reported           bool           `firestore:"reported" json:"reported"`
	ReportedAt         *time.Time     `firestore:"reportedAt,omitempty" json:"reportedAt,omitempty"`

	CancelledBy string     `firestore:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancelledAt *time.Time `firestore:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

func (b *Booking) IsParty(uid string) bool {
	return uid != "" && (uid == b.RequesterID || uid == b.CounterpartyID)
}

// OtherParty returns the uid on the other side of the booking from uid.
func (b *Booking) OtherParty(uid string) string {
	if uid == b.RequesterID {
		return b.CounterpartyID
	}
	return b.RequesterID
}

// Unlocker is the party who pays, or elects, to unlock the contact: the
// requester of a contact unlock, the listing owner of a seat booking.
func (b *Booking) Unlocker() string {
	if b.Type == TypeSeatBooking {
		return b.CounterpartyID
	}
	return b.RequesterID
}

func (b *Booking) RequesterContact() user.Contact {
	return user.Contact{Name: b.RequesterName, Phone: b.RequesterPhone, Email: b.RequesterEmail}
}

func (b *Booking) CounterpartyContact() user.Contact {
	return user.Contact{Name: b.CounterpartyName, Phone: b.CounterpartyPhone, Email: b.CounterpartyEmail}
}

// ---- inputs ----

type SeatRequestInput struct {
	ListingID string `json:"listingId"`
	Seats     int    `json:"seats"`
	Message   string `json:"message,omitempty"`
}

func (in *SeatRequestInput) Trim() {
	in.ListingID = strings.TrimSpace(in.ListingID)
	in.Message = strings.TrimSpace(in.Message)
}

type ContactRequestInput struct {
	ListingID string `json:"listingId"`
}

func (in *ContactRequestInput) Trim() {
	in.ListingID = strings.TrimSpace(in.ListingID)
}

// DirectInput creates an already-unlocked contact booking by sending the first message.
type DirectInput struct {
	ListingID string    `json:"listingId"`
	Message   string    `json:"message"`
	ShareMode ShareMode `json:"shareMode,omitempty"`
}

func (in *DirectInput) Trim() {
	in.ListingID = strings.TrimSpace(in.ListingID)
	in.Message = strings.TrimSpace(in.Message)
	in.ShareMode = ShareMode(strings.TrimSpace(string(in.ShareMode)))
}

type UnlockInput struct {
	PaymentIntentID string    `json:"paymentIntentId"`
	ShareMode       ShareMode `json:"shareMode,omitempty"`
}

func (in *UnlockInput) Trim() {
	in.PaymentIntentID = strings.TrimSpace(in.PaymentIntentID)
	in.ShareMode = ShareMode(strings.TrimSpace(string(in.ShareMode)))
}

type MessageInput struct {
	Text string `json:"text"`
}

func (in *MessageInput) Trim() {
	in.Text = strings.TrimSpace(in.Text)
}

// CreateResult tells the caller whether an existing booking was returned instead.
type CreateResult struct {
	Booking *Booking `json:"booking"`
	Created bool     `json:"created"`
}

// View is a booking as seen by one party.
type View struct {
	Booking    *Booking   `json:"booking"`
	Disclosure Disclosure `json:"disclosure"`
	CanReport  bool       `json:"canReport"`
}

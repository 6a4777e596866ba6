package listing

import (
	"strings"
	"time"

	"vagvanner/backend/internal/domain/user"
)

type Role string

const (
	RoleDriver    Role = "driver"
	RolePassenger Role = "passenger"
)

func (r Role) Valid() bool { return r == RoleDriver || r == RolePassenger }

// MaxActive is the number of concurrently active listings one user may own per role.
func MaxActive(r Role) int {
	switch r {
	case RoleDriver:
		return 3
	case RolePassenger:
		return 1
	}
	return 0
}

type CostMode string

const (
	CostFree          CostMode = "free"
	CostCompanionship CostMode = "companionship"
	CostShare         CostMode = "cost_share"
	CostFixedPrice    CostMode = "fixed_price"
)

func (m CostMode) Valid() bool {
	switch m {
	case CostFree, CostCompanionship, CostShare, CostFixedPrice:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusDeleted   Status = "deleted"
)

type Preferences struct {
	Smoking          bool   `firestore:"smoking" json:"smoking"`
	Pets             bool   `firestore:"pets" json:"pets"`
	Luggage          string `firestore:"luggage,omitempty" json:"luggage,omitempty"` // small|medium|large
	Accessibility    bool   `firestore:"accessibility" json:"accessibility"`
	Music            bool   `firestore:"music" json:"music"`
	Chattiness       string `firestore:"chattiness,omitempty" json:"chattiness,omitempty"` // quiet|some|talkative
	GenderPreference string `firestore:"genderPreference,omitempty" json:"genderPreference,omitempty"`
}

// Listing is a ride offer (driver) or ride request (passenger). Stored in "rides".
type Listing struct {
	ID      string `firestore:"-" json:"id"`
	OwnerID string `firestore:"ownerId" json:"ownerId"`
	Role    Role   `firestore:"role" json:"role"`

	OriginCity      string   `firestore:"originCity" json:"originCity"`
	OriginDesc      string   `firestore:"originDesc,omitempty" json:"originDesc,omitempty"`
	DestinationCity string   `firestore:"destinationCity" json:"destinationCity"`
	DestinationDesc string   `firestore:"destinationDesc,omitempty" json:"destinationDesc,omitempty"`
	AltOrigins      []string `firestore:"altOrigins,omitempty" json:"altOrigins,omitempty"`
	AltDestinations []string `firestore:"altDestinations,omitempty" json:"altDestinations,omitempty"`
	Waypoints       []string `firestore:"waypoints,omitempty" json:"waypoints,omitempty"`
	OriginKey       string   `firestore:"originKey" json:"-"`
	DestinationKey  string   `firestore:"destinationKey" json:"-"`

	Date      string `firestore:"date,omitempty" json:"date,omitempty"` // YYYY-MM-DD, one-off only
	Time      string `firestore:"time,omitempty" json:"time,omitempty"` // HH:MM
	Recurring bool   `firestore:"recurring" json:"recurring"`
	Weekdays  []int  `firestore:"weekdays,omitempty" json:"weekdays,omitempty"` // 0=Sunday

	RoundTrip  bool   `firestore:"roundTrip" json:"roundTrip"`
	ReturnDate string `firestore:"returnDate,omitempty" json:"returnDate,omitempty"`
	ReturnTime string `firestore:"returnTime,omitempty" json:"returnTime,omitempty"`

	Seats       int      `firestore:"seats" json:"seats"`
	CostMode    CostMode `firestore:"costMode" json:"costMode"`
	Price       int64    `firestore:"price" json:"price"` // SEK
	ApproxPrice bool     `firestore:"approxPrice" json:"approxPrice"`

	Notes       string      `firestore:"notes,omitempty" json:"notes,omitempty"`
	Preferences Preferences `firestore:"preferences" json:"preferences"`

	ContactName  string `firestore:"contactName,omitempty" json:"-"`
	ContactPhone string `firestore:"contactPhone,omitempty" json:"-"`
	ContactEmail string `firestore:"contactEmail,omitempty" json:"-"`

	Archived          bool   `firestore:"archived" json:"archived"`
	Status            Status `firestore:"status" json:"status"`
	ActiveBookingType string `firestore:"activeBookingType,omitempty" json:"activeBookingType,omitempty"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the listing counts against the owner's quota.
// Missing status is treated as active.
func (l Listing) IsActive() bool {
	if l.Archived {
		return false
	}
	return l.Status == "" || l.Status == StatusActive
}

// Contact is the listing-level contact, read at view time by unlocked bookings.
func (l Listing) Contact() user.Contact {
	return user.Contact{Name: l.ContactName, Phone: l.ContactPhone, Email: l.ContactEmail}
}

// SubmitInput is the user-entered listing. Update reuses it with the role left empty.
type SubmitInput struct {
	Role            Role     `json:"role"`
	OriginCity      string   `json:"originCity"`
	OriginDesc      string   `json:"originDesc,omitempty"`
	DestinationCity string   `json:"destinationCity"`
	DestinationDesc string   `json:"destinationDesc,omitempty"`
	AltOrigins      []string `json:"altOrigins,omitempty"`
	AltDestinations []string `json:"altDestinations,omitempty"`
	Waypoints       []string `json:"waypoints,omitempty"`

	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Recurring bool   `json:"recurring,omitempty"`
	Weekdays  []int  `json:"weekdays,omitempty"`

	RoundTrip  bool   `json:"roundTrip,omitempty"`
	ReturnDate string `json:"returnDate,omitempty"`
	ReturnTime string `json:"returnTime,omitempty"`

	Seats    int      `json:"seats"`
	CostMode CostMode `json:"costMode"`
	Price    int64    `json:"price,omitempty"`

	Notes       string      `json:"notes,omitempty"`
	Preferences Preferences `json:"preferences"`

	ContactName  string `json:"contactName,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
}

func (in *SubmitInput) Trim() {
	in.Role = Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	in.OriginCity = strings.TrimSpace(in.OriginCity)
	in.OriginDesc = strings.TrimSpace(in.OriginDesc)
	in.DestinationCity = strings.TrimSpace(in.DestinationCity)
	in.DestinationDesc = strings.TrimSpace(in.DestinationDesc)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.ReturnDate = strings.TrimSpace(in.ReturnDate)
	in.ReturnTime = strings.TrimSpace(in.ReturnTime)
	in.CostMode = CostMode(strings.ToLower(strings.TrimSpace(string(in.CostMode))))
	in.Notes = strings.TrimSpace(in.Notes)
	in.Preferences.Luggage = strings.TrimSpace(in.Preferences.Luggage)
	in.Preferences.Chattiness = strings.TrimSpace(in.Preferences.Chattiness)
	in.Preferences.GenderPreference = strings.TrimSpace(in.Preferences.GenderPreference)
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.ContactPhone = strings.ReplaceAll(strings.TrimSpace(in.ContactPhone), " ", "")
	in.ContactEmail = strings.ToLower(strings.TrimSpace(in.ContactEmail))
}

type DiscoverInput struct {
	Role     Role     `json:"role,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Date     string   `json:"date,omitempty"`
	CostMode CostMode `json:"costMode,omitempty"`
	MinSeats int      `json:"minSeats,omitempty"`
	Sort     string   `json:"sort,omitempty"` // soonest|newest|price_asc
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

func (in *DiscoverInput) Trim() {
	in.Role = Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	in.From = strings.TrimSpace(in.From)
	in.To = strings.TrimSpace(in.To)
	in.Date = strings.TrimSpace(in.Date)
	in.CostMode = CostMode(strings.TrimSpace(string(in.CostMode)))
	in.Sort = strings.TrimSpace(in.Sort)
}

type DiscoverResult struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
}

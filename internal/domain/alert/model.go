package alert

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/utils"
)

const (
	Collection = "alerts"
	// MaxActive is the number of active alerts a user may keep.
	MaxActive = 10
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrLimitReached = errors.New("limit reached")
)

func IsErrBadRequest(err error) bool   { return errors.Is(err, ErrBadRequest) }
func IsErrUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsErrNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsErrLimitReached(err error) bool { return errors.Is(err, ErrLimitReached) }

// Alert is a saved search. Role is the kind of listing being watched: a
// passenger watching for drivers sets RoleDriver.
type Alert struct {
	ID             string       `firestore:"-" json:"id"`
	UserID         string       `firestore:"userId" json:"userId"`
	Origin         string       `firestore:"origin,omitempty" json:"origin,omitempty"`
	Destination    string       `firestore:"destination,omitempty" json:"destination,omitempty"`
	OriginKey      string       `firestore:"originKey,omitempty" json:"-"`
	DestinationKey string       `firestore:"destinationKey,omitempty" json:"-"`
	Date           string       `firestore:"date,omitempty" json:"date,omitempty"`
	TimeFrom       string       `firestore:"timeFrom,omitempty" json:"timeFrom,omitempty"`
	TimeTo         string       `firestore:"timeTo,omitempty" json:"timeTo,omitempty"`
	Role           listing.Role `firestore:"role,omitempty" json:"role,omitempty"`
	Global         bool         `firestore:"global" json:"global"`
	Active         bool         `firestore:"active" json:"active"`
	CreatedAt      time.Time    `firestore:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time    `firestore:"updatedAt" json:"updatedAt"`
}

type CreateInput struct {
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	Date        string       `json:"date,omitempty"`
	TimeFrom    string       `json:"timeFrom,omitempty"`
	TimeTo      string       `json:"timeTo,omitempty"`
	Role        listing.Role `json:"role,omitempty"`
	Global      bool         `json:"global"`
}

func (in *CreateInput) Trim() {
	in.Origin = utils.TrimMax(utils.CollapseSpace(in.Origin), 80)
	in.Destination = utils.TrimMax(utils.CollapseSpace(in.Destination), 80)
	in.Date = strings.TrimSpace(in.Date)
	in.TimeFrom = strings.TrimSpace(in.TimeFrom)
	in.TimeTo = strings.TrimSpace(in.TimeTo)
	in.Role = listing.Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
}

func (in *CreateInput) validate(today time.Time) error {
	if in.Role != "" && !in.Role.Valid() {
		return fmt.Errorf("%w: role must be driver or passenger", ErrBadRequest)
	}
	if in.Global {
		return nil
	}
	if in.Origin == "" && in.Destination == "" {
		return fmt.Errorf("%w: origin or destination is required", ErrBadRequest)
	}
	if in.Date != "" {
		d, err := utils.ParseDate(in.Date, today.Location())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		if d.Before(today) {
			return fmt.Errorf("%w: date is in the past", ErrBadRequest)
		}
	}
	for _, c := range []string{in.TimeFrom, in.TimeTo} {
		if c != "" && !utils.ValidClock(c) {
			return fmt.Errorf("%w: %v", ErrBadRequest, utils.ErrInvalidClock)
		}
	}
	if in.TimeFrom != "" && in.TimeTo != "" && in.TimeFrom > in.TimeTo {
		return fmt.Errorf("%w: timeFrom is after timeTo", ErrBadRequest)
	}
	return nil
}

// Matches reports whether l satisfies a. Global alerts match every listing
// of the watched role.
func Matches(a Alert, l listing.Listing, loc *time.Location) bool {
	if !a.Active || !l.IsActive() {
		return false
	}
	if a.Role != "" && a.Role != l.Role {
		return false
	}
	if a.Global {
		return true
	}
	if a.OriginKey != "" && !listing.ServesOrigin(l, a.OriginKey) {
		return false
	}
	if a.DestinationKey != "" && !listing.ServesDestination(l, a.DestinationKey) {
		return false
	}
	if a.Date != "" {
		day, err := utils.ParseDate(a.Date, loc)
		if err != nil || !listing.RunsOn(l, day) {
			return false
		}
	}
	if l.Time != "" {
		if a.TimeFrom != "" && l.Time < a.TimeFrom {
			return false
		}
		if a.TimeTo != "" && l.Time > a.TimeTo {
			return false
		}
	}
	return true
}

package listing

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/utils"
)

const (
	maxSeats     = 8
	maxAlternate = 5
	maxNotes     = 1000
	maxCityLen   = 80
	maxDescLen   = 200
)

var (
	luggageSizes = map[string]bool{"": true, "small": true, "medium": true, "large": true}
	chattiness   = map[string]bool{"": true, "quiet": true, "some": true, "talkative": true}
	genderPrefs  = map[string]bool{"": true, "any": true, "women": true, "men": true}
)

// validate checks a trimmed input. today is the first bookable date in the
// service's time zone.
func (in *SubmitInput) validate(today time.Time) error {
	return in.check(today, "")
}

// validateUpdate is validate for an edit of l: a departure date the listing
// already has is accepted even if it has passed since.
func (in *SubmitInput) validateUpdate(l *Listing, today time.Time) error {
	keep := ""
	if !l.Recurring {
		keep = l.Date
	}
	return in.check(today, keep)
}

func (in *SubmitInput) check(today time.Time, keepDate string) error {
	if in.OriginCity == "" || in.DestinationCity == "" {
		return fmt.Errorf("%w: originCity and destinationCity are required", ErrBadRequest)
	}
	if utf8.RuneCountInString(in.OriginCity) > maxCityLen || utf8.RuneCountInString(in.DestinationCity) > maxCityLen {
		return fmt.Errorf("%w: city name is too long", ErrBadRequest)
	}
	if utf8.RuneCountInString(in.OriginDesc) > maxDescLen || utf8.RuneCountInString(in.DestinationDesc) > maxDescLen {
		return fmt.Errorf("%w: description is too long", ErrBadRequest)
	}
	if utils.Fold(in.OriginCity) == utils.Fold(in.DestinationCity) && len(in.Waypoints) == 0 {
		return fmt.Errorf("%w: origin and destination must differ", ErrBadRequest)
	}

	if in.Recurring {
		if len(in.Weekdays) == 0 {
			return fmt.Errorf("%w: recurring listings need at least one weekday", ErrBadRequest)
		}
		for _, d := range in.Weekdays {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: weekday %d out of range", ErrBadRequest, d)
			}
		}
		if in.Time != "" && !utils.ValidClock(in.Time) {
			return fmt.Errorf("%w: time must be HH:MM", ErrBadRequest)
		}
	} else {
		d, err := utils.ParseDate(in.Date, today.Location())
		if err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrBadRequest)
		}
		if d.Before(today) && in.Date != keepDate {
			return fmt.Errorf("%w: date is in the past", ErrBadRequest)
		}
		if !utils.ValidClock(in.Time) {
			return fmt.Errorf("%w: time must be HH:MM", ErrBadRequest)
		}
	}

	if in.RoundTrip && !in.Recurring {
		rd, err := utils.ParseDate(in.ReturnDate, today.Location())
		if err != nil {
			return fmt.Errorf("%w: returnDate must be YYYY-MM-DD", ErrBadRequest)
		}
		if in.ReturnTime != "" && !utils.ValidClock(in.ReturnTime) {
			return fmt.Errorf("%w: returnTime must be HH:MM", ErrBadRequest)
		}
		out, _ := utils.ParseDate(in.Date, today.Location())
		if rd.Before(out) || (rd.Equal(out) && in.ReturnTime != "" && in.ReturnTime <= in.Time) {
			return fmt.Errorf("%w: return must be after departure", ErrBadRequest)
		}
	}

	if in.Seats < 1 || in.Seats > maxSeats {
		return fmt.Errorf("%w: seats must be between 1 and %d", ErrBadRequest, maxSeats)
	}

	if !in.CostMode.Valid() {
		return fmt.Errorf("%w: costMode must be one of free, companionship, cost_share, fixed_price", ErrBadRequest)
	}
	if in.Price < 0 || in.Price > 10000 {
		return fmt.Errorf("%w: price out of range", ErrBadRequest)
	}
	if in.CostMode == CostFixedPrice && in.Price == 0 {
		return fmt.Errorf("%w: fixed_price requires a price", ErrBadRequest)
	}

	if utf8.RuneCountInString(in.Notes) > maxNotes {
		return fmt.Errorf("%w: notes must be at most %d characters", ErrBadRequest, maxNotes)
	}
	p := in.Preferences
	if !luggageSizes[p.Luggage] || !chattiness[p.Chattiness] || !genderPrefs[p.GenderPreference] {
		return fmt.Errorf("%w: invalid preference value", ErrBadRequest)
	}
	return nil
}

// apply copies the normalized input onto l. OwnerID, Role and lifecycle
// fields are left alone.
func (in *SubmitInput) apply(l *Listing, contact user.Contact) {
	l.OriginCity = utils.CollapseSpace(in.OriginCity)
	l.OriginDesc = in.OriginDesc
	l.DestinationCity = utils.CollapseSpace(in.DestinationCity)
	l.DestinationDesc = in.DestinationDesc
	l.AltOrigins = utils.TrimList(in.AltOrigins, maxAlternate)
	l.AltDestinations = utils.TrimList(in.AltDestinations, maxAlternate)
	l.Waypoints = utils.TrimList(in.Waypoints, maxAlternate)
	l.OriginKey = utils.Fold(l.OriginCity)
	l.DestinationKey = utils.Fold(l.DestinationCity)

	l.Recurring = in.Recurring
	l.Time = in.Time
	if in.Recurring {
		l.Date = ""
		l.Weekdays = normalizeWeekdays(in.Weekdays)
	} else {
		l.Date = in.Date
		l.Weekdays = nil
	}

	l.RoundTrip = in.RoundTrip
	if in.RoundTrip {
		l.ReturnDate = in.ReturnDate
		l.ReturnTime = in.ReturnTime
	} else {
		l.ReturnDate, l.ReturnTime = "", ""
	}
	if in.Recurring {
		l.ReturnDate = ""
	}

	l.Seats = in.Seats
	l.CostMode = in.CostMode
	switch in.CostMode {
	case CostFree, CostCompanionship:
		l.Price = 0
		l.ApproxPrice = false
	case CostShare:
		l.Price = in.Price
		l.ApproxPrice = true
	default:
		l.Price = in.Price
		l.ApproxPrice = false
	}

	l.Notes = in.Notes
	l.Preferences = in.Preferences

	c := user.Contact{Name: in.ContactName, Phone: in.ContactPhone, Email: in.ContactEmail}.Merge(contact)
	l.ContactName, l.ContactPhone, l.ContactEmail = c.Name, c.Phone, c.Email
}

func normalizeWeekdays(in []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(in))
	for _, d := range in {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

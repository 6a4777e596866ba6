package listing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"vagvanner/backend/internal/utils"
)

const (
	discoverPage     = 200
	discoverPageMax  = 500
	discoverLimitDef = 50
)

// Discover reads a bounded page of recent listings and filters and sorts it
// in memory.
func (s *Service) Discover(ctx context.Context, in DiscoverInput) (*DiscoverResult, error) {
	in.Trim()
	if in.Role != "" && !in.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", ErrBadRequest)
	}
	if in.CostMode != "" && !in.CostMode.Valid() {
		return nil, fmt.Errorf("%w: invalid costMode", ErrBadRequest)
	}
	var date time.Time
	if in.Date != "" {
		d, err := utils.ParseDate(in.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrBadRequest)
		}
		date = d
	}

	ctx, cancel := context.WithTimeout(ctx, s.discoveryTimeout)
	defer cancel()

	page, err := s.store.Recent(ctx, discoverPage)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: listing query timed out", ErrUnavailable)
		}
		return nil, err
	}

	today := s.today()
	from := utils.Fold(in.From)
	to := utils.Fold(in.To)

	matched := make([]Listing, 0, len(page))
	for _, l := range page {
		if !l.IsActive() || isStale(l, today) {
			continue
		}
		if in.Role != "" && l.Role != in.Role {
			continue
		}
		if in.CostMode != "" && l.CostMode != in.CostMode {
			continue
		}
		if in.MinSeats > 0 && l.Seats < in.MinSeats {
			continue
		}
		if from != "" && !ServesOrigin(l, from) {
			continue
		}
		if to != "" && !ServesDestination(l, to) {
			continue
		}
		if !date.IsZero() && !RunsOn(l, date) {
			continue
		}
		matched = append(matched, l)
	}

	sortListings(matched, in.Sort, s.now().In(s.loc))

	total := len(matched)
	limit := in.Limit
	if limit <= 0 {
		limit = discoverLimitDef
	}
	if limit > discoverPageMax {
		limit = discoverPageMax
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &DiscoverResult{Listings: matched[offset:end], Total: total}, nil
}

// isStale reports a one-off listing whose date has passed. Stale listings are
// never archived, only hidden.
func isStale(l Listing, today time.Time) bool {
	if l.Recurring || l.Date == "" {
		return false
	}
	d, err := utils.ParseDate(l.Date, today.Location())
	if err != nil {
		return false
	}
	return d.Before(today)
}

// RunsOn reports whether the listing departs on the given day.
func RunsOn(l Listing, day time.Time) bool {
	if l.Recurring {
		wd := int(day.Weekday())
		for _, d := range l.Weekdays {
			if d == wd {
				return true
			}
		}
		return false
	}
	return l.Date == day.Format(utils.DateLayout)
}

// ServesOrigin reports whether the folded query matches the listing's
// departure side, including alternates and waypoints.
func ServesOrigin(l Listing, query string) bool {
	return matchesPlace(query, l.OriginCity, l.OriginDesc, l.AltOrigins, l.Waypoints)
}

func ServesDestination(l Listing, query string) bool {
	return matchesPlace(query, l.DestinationCity, l.DestinationDesc, l.AltDestinations, l.Waypoints)
}

func matchesPlace(query, city, desc string, alternates, waypoints []string) bool {
	if strings.Contains(utils.Fold(city), query) || strings.Contains(utils.Fold(desc), query) {
		return true
	}
	for _, a := range alternates {
		if strings.Contains(utils.Fold(a), query) {
			return true
		}
	}
	for _, w := range waypoints {
		if strings.Contains(utils.Fold(w), query) {
			return true
		}
	}
	return false
}

// NextDeparture is the next departure at or after now. Zero when unknown.
func NextDeparture(l Listing, now time.Time) time.Time {
	loc := now.Location()
	hh, mm := 0, 0
	if utils.ValidClock(l.Time) {
		fmt.Sscanf(l.Time, "%d:%d", &hh, &mm)
	}
	if !l.Recurring {
		d, err := utils.ParseDate(l.Date, loc)
		if err != nil {
			return time.Time{}
		}
		return d.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
	}
	if len(l.Weekdays) == 0 {
		return time.Time{}
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, loc)
	for i := 0; i < 8; i++ {
		t := start.AddDate(0, 0, i)
		if t.Before(now) {
			continue
		}
		if RunsOn(l, t) {
			return t
		}
	}
	return time.Time{}
}

func sortListings(ls []Listing, mode string, now time.Time) {
	switch mode {
	case "newest":
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) })
	case "price_asc":
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Price < ls[j].Price })
	default:
		sort.SliceStable(ls, func(i, j int) bool {
			a, b := NextDeparture(ls[i], now), NextDeparture(ls[j], now)
			if a.IsZero() != b.IsZero() {
				return !a.IsZero()
			}
			return a.Before(b)
		})
	}
}

package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/notify"
	"vagvanner/backend/internal/observability"
	"vagvanner/backend/internal/utils"
)

type Options struct {
	Location *time.Location
	Now      func() time.Time
}

type Service struct {
	store    Store
	notifier notify.Notifier
	log      logrus.FieldLogger
	loc      *time.Location
	now      func() time.Time
}

func NewService(store Store, notifier notify.Notifier, log logrus.FieldLogger, opts Options) *Service {
	s := &Service{store: store, notifier: notifier, log: log, loc: opts.Location, now: opts.Now}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.loc == nil {
		s.loc = listing.StockholmLocation()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) Create(ctx context.Context, cu user.CurrentUser, in CreateInput) (*Alert, error) {
	if cu.UID == "" {
		return nil, fmt.Errorf("%w: sign in required", ErrUnauthorized)
	}
	in.Trim()
	if err := in.validate(s.today()); err != nil {
		return nil, err
	}

	mine, err := s.store.ListByUser(ctx, cu.UID)
	if err != nil {
		return nil, err
	}
	active := 0
	for _, a := range mine {
		if a.Active {
			active++
		}
	}
	if active >= MaxActive {
		return nil, fmt.Errorf("%w: max %d active alerts", ErrLimitReached, MaxActive)
	}

	now := s.now().UTC()
	a := &Alert{
		UserID:         cu.UID,
		Origin:         in.Origin,
		Destination:    in.Destination,
		OriginKey:      utils.Fold(in.Origin),
		DestinationKey: utils.Fold(in.Destination),
		Date:           in.Date,
		TimeFrom:       in.TimeFrom,
		TimeTo:         in.TimeTo,
		Role:           in.Role,
		Global:         in.Global,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	id, err := s.store.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return a, nil
}

func (s *Service) Deactivate(ctx context.Context, cu user.CurrentUser, id string) (*Alert, error) {
	return s.store.Update(ctx, id, func(a *Alert) error {
		if a.UserID != cu.UID {
			return fmt.Errorf("%w: not your alert", ErrUnauthorized)
		}
		a.Active = false
		a.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *Service) ListMine(ctx context.Context, cu user.CurrentUser) ([]Alert, error) {
	return s.store.ListByUser(ctx, cu.UID)
}

// Dispatch notifies every user with an active alert matching l, once per
// user, and never the listing owner. It returns the number notified.
func (s *Service) Dispatch(ctx context.Context, l *listing.Listing) (int, error) {
	alerts, err := s.store.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	seen := map[string]bool{}
	for _, a := range alerts {
		if a.UserID == l.OwnerID || seen[a.UserID] || !Matches(a, *l, s.loc) {
			continue
		}
		seen[a.UserID] = true
		observability.AlertMatches.Inc()
		notify.Safe(ctx, s.notifier, s.log, notify.Message{
			UserID: a.UserID,
			Type:   notify.TypeAlertMatch,
			Title:  "Ny resa som matchar din bevakning",
			Body:   describe(l),
			Data:   map[string]string{"listingId": l.ID, "alertId": a.ID},
		})
	}
	if len(seen) > 0 {
		s.log.WithFields(logrus.Fields{"listingId": l.ID, "matched": len(seen)}).Info("alerts dispatched")
	}
	return len(seen), nil
}

func describe(l *listing.Listing) string {
	when := l.Date
	if l.Recurring {
		when = "återkommande"
	}
	if l.Time != "" {
		when += " " + l.Time
	}
	return fmt.Sprintf("%s till %s, %s", l.OriginCity, l.DestinationCity, when)
}

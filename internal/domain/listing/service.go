package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/lock"
	"vagvanner/backend/internal/observability"
)

// Publisher announces new listings, e.g. to the alert worker.
type Publisher interface {
	ListingCreated(ctx context.Context, l *Listing) error
}

type Options struct {
	LockTTL          time.Duration
	DiscoveryTimeout time.Duration
	Location         *time.Location
	Now              func() time.Time

	// Profiles fills contact gaps the ID token leaves, e.g. the phone of an
	// email sign-in. Optional.
	Profiles user.ProfileReader
}

type Service struct {
	store     Store
	locker    lock.Locker
	publisher Publisher
	profiles  user.ProfileReader
	log       logrus.FieldLogger

	lockTTL          time.Duration
	discoveryTimeout time.Duration
	loc              *time.Location
	now              func() time.Time
}

func NewService(store Store, locker lock.Locker, publisher Publisher, log logrus.FieldLogger, opts Options) *Service {
	s := &Service{
		store:            store,
		locker:           locker,
		publisher:        publisher,
		profiles:         opts.Profiles,
		log:              log,
		lockTTL:          opts.LockTTL,
		discoveryTimeout: opts.DiscoveryTimeout,
		loc:              opts.Location,
		now:              opts.Now,
	}
	if s.locker == nil {
		s.locker = lock.NewLocal()
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 10 * time.Second
	}
	if s.discoveryTimeout <= 0 {
		s.discoveryTimeout = 8 * time.Second
	}
	if s.loc == nil {
		s.loc = StockholmLocation()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// StockholmLocation falls back to UTC when tzdata is unavailable.
func StockholmLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *Service) today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

// contactOf never fails a write: without a profile the token claims are used.
func (s *Service) contactOf(ctx context.Context, cu user.CurrentUser) user.Contact {
	c, err := user.ResolveContact(ctx, s.profiles, cu)
	if err != nil {
		s.log.WithError(err).WithField("uid", cu.UID).Warn("profile unavailable, using token contact")
	}
	return c
}

func quotaKey(ownerID string, role Role) string {
	return "listing-quota:" + ownerID + ":" + string(role)
}

// Submit validates and writes a new listing. The quota count and the write
// run under a per-(owner, role) lock, and a rejected submission writes nothing.
func (s *Service) Submit(ctx context.Context, cu user.CurrentUser, in SubmitInput) (*Listing, error) {
	in.Trim()
	if cu.UID == "" {
		return nil, fmt.Errorf("%w: sign in required", ErrUnauthorized)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: role must be driver or passenger", ErrBadRequest)
	}
	if err := in.validate(s.today()); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	l := &Listing{
		OwnerID:   cu.UID,
		Role:      in.Role,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(l, s.contactOf(ctx, cu))

	release, err := s.locker.Acquire(ctx, quotaKey(cu.UID, in.Role), s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: quota lock: %v", ErrUnavailable, err)
	}
	defer release()

	count, err := s.store.CountActive(ctx, cu.UID, in.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}
	if max := MaxActive(in.Role); count >= max {
		observability.QuotaRejections.WithLabelValues(string(in.Role)).Inc()
		return nil, fmt.Errorf("%w: max %d active %s listings", ErrLimitReached, max, in.Role)
	}

	id, err := s.store.Create(ctx, l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	observability.ListingsSubmitted.WithLabelValues(string(in.Role)).Inc()

	s.log.WithFields(logrus.Fields{"listingId": id, "uid": cu.UID, "role": in.Role}).Info("listing submitted")

	if s.publisher != nil {
		if err := s.publisher.ListingCreated(ctx, l); err != nil {
			s.log.WithError(err).WithField("listingId", id).Warn("listing event not published")
		}
	}
	return l, nil
}

// Update edits the owner's listing. The role cannot change.
func (s *Service) Update(ctx context.Context, cu user.CurrentUser, id string, in SubmitInput) (*Listing, error) {
	in.Trim()
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrBadRequest)
	}
	today := s.today()
	contact := s.contactOf(ctx, cu)
	return s.store.Update(ctx, id, func(l *Listing) error {
		if l.OwnerID != cu.UID {
			return fmt.Errorf("%w: not the owner", ErrUnauthorized)
		}
		if !l.IsActive() {
			return fmt.Errorf("%w: listing is no longer active", ErrBadRequest)
		}
		if in.Role != "" && in.Role != l.Role {
			return fmt.Errorf("%w: role cannot be changed", ErrBadRequest)
		}
		if err := in.validateUpdate(l, today); err != nil {
			return err
		}
		// the input replaces the listing contact; cleared fields fall back to the account
		in.apply(l, contact)
		l.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, cu user.CurrentUser, id string) (*Listing, error) {
	return s.setLifecycle(ctx, cu, id, func(l *Listing) { l.Status = StatusCancelled })
}

// Delete is a soft delete; bookings keep referencing the document.
func (s *Service) Delete(ctx context.Context, cu user.CurrentUser, id string) (*Listing, error) {
	return s.setLifecycle(ctx, cu, id, func(l *Listing) { l.Status = StatusDeleted })
}

func (s *Service) Archive(ctx context.Context, cu user.CurrentUser, id string) (*Listing, error) {
	return s.setLifecycle(ctx, cu, id, func(l *Listing) { l.Archived = true })
}

func (s *Service) setLifecycle(ctx context.Context, cu user.CurrentUser, id string, mut func(*Listing)) (*Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrBadRequest)
	}
	return s.store.Update(ctx, id, func(l *Listing) error {
		if l.OwnerID != cu.UID {
			return fmt.Errorf("%w: not the owner", ErrUnauthorized)
		}
		mut(l)
		l.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrBadRequest)
	}
	return s.store.Get(ctx, id)
}

func (s *Service) ListMine(ctx context.Context, cu user.CurrentUser) ([]Listing, error) {
	ls, err := s.store.ListByOwner(ctx, cu.UID)
	if err != nil {
		return nil, err
	}
	out := ls[:0]
	for _, l := range ls {
		if l.Status != StatusDeleted {
			out = append(out, l)
		}
	}
	return out, nil
}

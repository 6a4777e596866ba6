package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/payment"
	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/notify"
	"vagvanner/backend/internal/observability"
	"vagvanner/backend/internal/utils"
)

type ListingReader interface {
	Get(ctx context.Context, id string) (*listing.Listing, error)
}

// PaymentProvider holds, settles and releases the unlock commission.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, in payment.IntentInput) (*payment.Intent, error)
	Authorization(ctx context.Context, intentID string) (*payment.Authorization, error)
	Capture(ctx context.Context, intentID string) error
	Void(ctx context.Context, intentID string) error
}

type Options struct {
	// Fee is the unlock commission in minor units.
	Fee      int64
	Currency string
	Now      func() time.Time

	// DirectUnlock enables the no-payment unlock path. It never converts a
	// booking that carries a commission.
	DirectUnlock bool
	// Profiles fills contact gaps the ID token leaves. Optional.
	Profiles user.ProfileReader
}

type Service struct {
	store    Store
	listings ListingReader
	payments PaymentProvider
	notifier notify.Notifier
	profiles user.ProfileReader
	log      logrus.FieldLogger

	fee          int64
	currency     string
	now          func() time.Time
	directUnlock bool
}

// NewService wires the booking workflow. payments may be nil; bookings then
// carry no commission and only the direct unlock path can open them.
func NewService(store Store, listings ListingReader, payments PaymentProvider, notifier notify.Notifier, log logrus.FieldLogger, opts Options) *Service {
	s := &Service{
		store:    store,
		listings: listings,
		payments: payments,
		notifier: notifier,
		profiles: opts.Profiles,
		log:      log,

		fee:          opts.Fee,
		currency:     strings.ToLower(opts.Currency),
		now:          opts.Now,
		directUnlock: opts.DirectUnlock,
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.currency == "" {
		s.currency = "sek"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) PaymentsEnabled() bool { return s.payments != nil }

func (s *Service) DirectUnlockEnabled() bool { return s.directUnlock }

func (s *Service) contactOf(ctx context.Context, cu user.CurrentUser) user.Contact {
	c, err := user.ResolveContact(ctx, s.profiles, cu)
	if err != nil {
		s.log.WithError(err).WithField("uid", cu.UID).Warn("profile contact unavailable")
	}
	return c
}

// existing returns the caller's booking of type t on the listing, or nil.
// Repeat requests are answered from it before the listing is consulted.
func (s *Service) existing(ctx context.Context, t Type, listingID string, cu user.CurrentUser) (*Booking, error) {
	if cu.UID == "" {
		return nil, fmt.Errorf("%w: sign in required", ErrUnauthorized)
	}
	if listingID == "" {
		return nil, fmt.Errorf("%w: listingId is required", ErrBadRequest)
	}
	b, err := s.store.Get(ctx, ID(t, listingID, cu.UID))
	if IsErrNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	observability.DuplicateBookings.WithLabelValues(string(t)).Inc()
	return b, nil
}

func (s *Service) loadListing(ctx context.Context, id string) (*listing.Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: listingId is required", ErrBadRequest)
	}
	l, err := s.listings.Get(ctx, id)
	if listing.IsErrNotFound(err) {
		return nil, fmt.Errorf("%w: listing %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// newBooking snapshots the listing terms and both parties' contacts.
func (s *Service) newBooking(ctx context.Context, t Type, l *listing.Listing, cu user.CurrentUser) (*Booking, error) {
	if cu.UID == "" {
		return nil, fmt.Errorf("%w: sign in required", ErrUnauthorized)
	}
	if l.OwnerID == cu.UID {
		return nil, fmt.Errorf("%w: cannot book your own listing", ErrBadRequest)
	}
	if !l.IsActive() {
		return nil, fmt.Errorf("%w: listing is no longer active", ErrBadRequest)
	}

	now := s.now().UTC()
	req := s.contactOf(ctx, cu)
	owner := l.Contact()
	var commission int64
	if s.payments != nil {
		commission = s.fee
	}
	return &Booking{
		ID:                ID(t, l.ID, cu.UID),
		Type:              t,
		RideID:            l.ID,
		RequesterID:       cu.UID,
		CounterpartyID:    l.OwnerID,
		Status:            StatusRequested,
		Origin:            l.OriginCity,
		Destination:       l.DestinationCity,
		Date:              l.Date,
		Time:              l.Time,
		RequesterName:     req.Name,
		RequesterEmail:    req.Email,
		RequesterPhone:    req.Phone,
		CounterpartyName:  owner.Name,
		CounterpartyEmail: owner.Email,
		CounterpartyPhone: owner.Phone,
		Price:             l.Price,
		Commission:        commission,
		Currency:          s.currency,
		Messages:          []Message{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// RequestSeat creates a seat booking against a listing. A second request for
// the same listing returns the existing booking.
func (s *Service) RequestSeat(ctx context.Context, cu user.CurrentUser, in SeatRequestInput) (*CreateResult, error) {
	in.Trim()
	prior, err := s.existing(ctx, TypeSeatBooking, in.ListingID, cu)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return &CreateResult{Booking: prior, Created: false}, nil
	}
	l, err := s.loadListing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if in.Seats == 0 {
		in.Seats = 1
	}
	if in.Seats < 1 || in.Seats > l.Seats {
		return nil, fmt.Errorf("%w: seats must be between 1 and %d", ErrBadRequest, l.Seats)
	}

	b, err := s.newBooking(ctx, TypeSeatBooking, l, cu)
	if err != nil {
		return nil, err
	}
	b.Seats = in.Seats
	if in.Message != "" {
		m, err := newMessage(cu.UID, cu.Email, in.Message, b.CreatedAt)
		if err != nil {
			return nil, err
		}
		b.Messages = appendMessage(b.Messages, m)
	}

	stored, created, err := s.store.Create(ctx, b)
	if err != nil {
		return nil, err
	}
	if !created {
		observability.DuplicateBookings.WithLabelValues(string(TypeSeatBooking)).Inc()
		return &CreateResult{Booking: stored, Created: false}, nil
	}
	observability.BookingsCreated.WithLabelValues(string(TypeSeatBooking)).Inc()
	s.log.WithFields(logrus.Fields{"bookingId": stored.ID, "listingId": l.ID, "uid": cu.UID}).Info("seat booking requested")

	notify.Safe(ctx, s.notifier, s.log, notify.Message{
		UserID:    stored.CounterpartyID,
		SenderUID: cu.UID,
		Type:      notify.TypeBookingRequested,
		Title:     "Ny bokningsförfrågan",
		Body:      fmt.Sprintf("%s vill åka med från %s till %s.", displayName(cu), stored.Origin, stored.Destination),
		Data:      map[string]string{"bookingId": stored.ID},
	})
	return &CreateResult{Booking: stored, Created: true}, nil
}

// StartContactUnlock creates a contact unlock booking awaiting payment and
// tells the listing owner someone is interested.
func (s *Service) StartContactUnlock(ctx context.Context, cu user.CurrentUser, in ContactRequestInput) (*CreateResult, error) {
	in.Trim()
	prior, err := s.existing(ctx, TypeContactUnlock, in.ListingID, cu)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return &CreateResult{Booking: prior, Created: false}, nil
	}
	l, err := s.loadListing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	b, err := s.newBooking(ctx, TypeContactUnlock, l, cu)
	if err != nil {
		return nil, err
	}

	stored, created, err := s.store.Create(ctx, b)
	if err != nil {
		return nil, err
	}
	if !created {
		observability.DuplicateBookings.WithLabelValues(string(TypeContactUnlock)).Inc()
		return &CreateResult{Booking: stored, Created: false}, nil
	}
	observability.BookingsCreated.WithLabelValues(string(TypeContactUnlock)).Inc()
	s.log.WithFields(logrus.Fields{"bookingId": stored.ID, "listingId": l.ID, "uid": cu.UID}).Info("contact unlock started")

	notify.Safe(ctx, s.notifier, s.log, notify.Message{
		UserID:    stored.CounterpartyID,
		SenderUID: cu.UID,
		Type:      notify.TypeBookingRequested,
		Title:     "Någon vill kontakta dig",
		Body:      fmt.Sprintf("%s är intresserad av resan %s till %s.", displayName(cu), stored.Origin, stored.Destination),
		Data:      map[string]string{"bookingId": stored.ID},
	})
	return &CreateResult{Booking: stored, Created: true}, nil
}

// UnlockDirect is the no-payment path: the first message creates a contact
// booking that is already unlocked. A pending booking is only converted when
// it carries no commission.
func (s *Service) UnlockDirect(ctx context.Context, cu user.CurrentUser, in DirectInput) (*CreateResult, error) {
	if !s.directUnlock {
		return nil, fmt.Errorf("%w: direct unlock is not available", ErrUnauthorized)
	}
	in.Trim()
	mode, err := ParseShareMode(string(in.ShareMode))
	if err != nil {
		return nil, err
	}
	now := s.now()
	m, err := newMessage(cu.UID, cu.Email, in.Message, now)
	if err != nil {
		return nil, err
	}
	prior, err := s.existing(ctx, TypeContactUnlock, in.ListingID, cu)
	if err != nil {
		return nil, err
	}
	unlock := DirectUnlock(cu.UID, mode, s.contactOf(ctx, cu))
	if prior != nil {
		return s.directOnExisting(ctx, cu, prior.ID, m, unlock, now)
	}

	l, err := s.loadListing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	b, err := s.newBooking(ctx, TypeContactUnlock, l, cu)
	if err != nil {
		return nil, err
	}
	b.Messages = appendMessage(b.Messages, m)
	if err := ApplyUnlock(b, unlock, now); err != nil {
		return nil, err
	}

	stored, created, err := s.store.Create(ctx, b)
	if err != nil {
		return nil, err
	}
	if !created {
		observability.DuplicateBookings.WithLabelValues(string(TypeContactUnlock)).Inc()
		return s.directOnExisting(ctx, cu, stored.ID, m, unlock, now)
	}
	// Create does not touch the listing; tag it the way Unlock does.
	stored, err = s.store.Unlock(ctx, stored.ID, func(*Booking) error { return nil })
	if err != nil {
		return nil, err
	}
	observability.BookingsCreated.WithLabelValues(string(TypeContactUnlock)).Inc()
	observability.Unlocks.WithLabelValues(ViaDirect).Inc()
	s.log.WithFields(logrus.Fields{"bookingId": stored.ID, "uid": cu.UID, "via": ViaDirect}).Info("contact unlocked")
	s.notifyUnlocked(ctx, cu, stored)
	return &CreateResult{Booking: stored, Created: true}, nil
}

// directOnExisting appends the message to a booking the caller already has
// and unlocks it when still pending.
func (s *Service) directOnExisting(ctx context.Context, cu user.CurrentUser, id string, m Message, unlock Unlock, now time.Time) (*CreateResult, error) {
	wasUnlocked := false
	stored, err := s.store.Unlock(ctx, id, func(b *Booking) error {
		if !b.IsParty(cu.UID) {
			return fmt.Errorf("%w: not a party to this booking", ErrUnauthorized)
		}
		wasUnlocked = b.Status.IsUnlocked()
		if !wasUnlocked && b.Commission > 0 {
			return fmt.Errorf("%w: booking %s requires payment", ErrInvalidTransition, b.ID)
		}
		b.Messages = appendMessage(b.Messages, m)
		b.UpdatedAt = now.UTC()
		if wasUnlocked {
			return nil
		}
		return ApplyUnlock(b, unlock, now)
	})
	if err != nil {
		return nil, err
	}
	if wasUnlocked {
		s.notifyMessage(ctx, cu, stored, m)
		return &CreateResult{Booking: stored, Created: false}, nil
	}

	observability.Unlocks.WithLabelValues(ViaDirect).Inc()
	s.log.WithFields(logrus.Fields{"bookingId": stored.ID, "uid": cu.UID, "via": ViaDirect}).Info("contact unlocked")
	s.notifyUnlocked(ctx, cu, stored)
	return &CreateResult{Booking: stored, Created: false}, nil
}

// CreatePaymentIntent opens a held payment for the booking's commission.
func (s *Service) CreatePaymentIntent(ctx context.Context, cu user.CurrentUser, id string) (*payment.Intent, error) {
	if s.payments == nil {
		return nil, fmt.Errorf("%w: %w", ErrPayment, payment.ErrDisabled)
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Unlocker() != cu.UID {
		return nil, fmt.Errorf("%w: only the unlocking party can pay", ErrUnauthorized)
	}
	if b.Status.IsUnlocked() {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrAlreadyUnlocked, b.ID, b.Status)
	}
	if b.Status != StatusRequested {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}
	if b.Commission <= 0 {
		return nil, fmt.Errorf("%w: booking has no commission", ErrBadRequest)
	}

	intent, err := s.payments.CreateIntent(ctx, payment.IntentInput{
		BookingID:   b.ID,
		PayerUID:    cu.UID,
		PayerEmail:  cu.Email,
		AmountMinor: b.Commission,
		Currency:    b.Currency,
		Description: fmt.Sprintf("VägVänner kontakt %s till %s", b.Origin, b.Destination),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayment, err)
	}
	return intent, nil
}

// UnlockWithPayment verifies the provider authorization and unlocks the booking.
func (s *Service) UnlockWithPayment(ctx context.Context, cu user.CurrentUser, id string, in UnlockInput) (*View, error) {
	if s.payments == nil {
		return nil, fmt.Errorf("%w: %w", ErrPayment, payment.ErrDisabled)
	}
	in.Trim()
	if in.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: paymentIntentId is required", ErrBadRequest)
	}
	mode, err := ParseShareMode(string(in.ShareMode))
	if err != nil {
		return nil, err
	}

	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Unlocker() != cu.UID {
		return nil, fmt.Errorf("%w: only the unlocking party can unlock", ErrUnauthorized)
	}
	if b.Status.IsUnlocked() {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrAlreadyUnlocked, b.ID, b.Status)
	}

	auth, err := s.payments.Authorization(ctx, in.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayment, err)
	}
	if err := payment.Verify(auth, b.ID, b.Commission, b.Currency); err != nil {
		if payment.IsErrDeclined(err) {
			return nil, fmt.Errorf("%w: %v", ErrPayment, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	now := s.now()
	unlock := PaymentUnlock(cu.UID, auth, mode, s.contactOf(ctx, cu), now)
	updated, err := s.store.Unlock(ctx, id, func(b *Booking) error {
		if b.Unlocker() != cu.UID {
			return fmt.Errorf("%w: only the unlocking party can unlock", ErrUnauthorized)
		}
		return ApplyUnlock(b, unlock, now)
	})
	if err != nil {
		// the hold can no longer back this booking: it lost a race to another
		// unlock, or the booking was cancelled after the intent was opened
		if (IsErrAlreadyUnlocked(err) || IsErrInvalidTransition(err)) && auth.Held() {
			s.releaseHold(ctx, id, auth.ID)
		}
		return nil, err
	}

	observability.Unlocks.WithLabelValues(ViaPayment).Inc()
	s.log.WithFields(logrus.Fields{"bookingId": id, "uid": cu.UID, "via": ViaPayment, "authorizationId": auth.ID}).Info("contact unlocked")
	s.notifyUnlocked(ctx, cu, updated)
	return s.view(ctx, updated, cu.UID)
}

// releaseHold voids a hold that did not unlock the booking. The hold the
// booking already records is left alone.
func (s *Service) releaseHold(ctx context.Context, bookingID, intentID string) {
	b, err := s.store.Get(ctx, bookingID)
	if err == nil && b.Payment != nil && b.Payment.AuthorizationID == intentID {
		return
	}
	if err := s.payments.Void(ctx, intentID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"bookingId": bookingID, "paymentIntent": intentID}).Error("failed to release unused hold")
	}
}

// Cancel moves a requested or authorized booking to cancelled. The record is
// kept; a held payment is released first.
func (s *Service) Cancel(ctx context.Context, cu user.CurrentUser, id string) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(cu.UID) {
		return nil, fmt.Errorf("%w: not a party to this booking", ErrUnauthorized)
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", ErrInvalidTransition, b.Status)
	}
	if b.Status == StatusAuthorized && b.Payment != nil {
		if s.payments == nil {
			return nil, fmt.Errorf("%w: %w", ErrPayment, payment.ErrDisabled)
		}
		if err := s.payments.Void(ctx, b.Payment.AuthorizationID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayment, err)
		}
	}

	now := s.now().UTC()
	updated, err := s.store.Update(ctx, id, func(b *Booking) error {
		if err := transition(b, StatusCancelled); err != nil {
			return err
		}
		b.CancelledBy = cu.UID
		b.CancelledAt = &now
		if b.Payment != nil {
			b.Payment.Status = payment.StatusCanceled
			b.Payment.VoidedAt = &now
		}
		b.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"bookingId": id, "uid": cu.UID}).Info("booking cancelled")
	notify.Safe(ctx, s.notifier, s.log, notify.Message{
		UserID:    updated.OtherParty(cu.UID),
		SenderUID: cu.UID,
		Type:      notify.TypeBookingCancelled,
		Title:     "Bokningen avbröts",
		Body:      fmt.Sprintf("Resan %s till %s har avbokats.", updated.Origin, updated.Destination),
		Data:      map[string]string{"bookingId": id},
	})
	return updated, nil
}

// Capture settles the held commission. Moderators only.
func (s *Service) Capture(ctx context.Context, admin user.CurrentUser, id string) (*Booking, error) {
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	if s.payments == nil {
		return nil, fmt.Errorf("%w: %w", ErrPayment, payment.ErrDisabled)
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusAuthorized || b.Payment == nil {
		return nil, fmt.Errorf("%w: cannot capture a %s booking", ErrInvalidTransition, b.Status)
	}
	if err := s.payments.Capture(ctx, b.Payment.AuthorizationID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayment, err)
	}
	return s.markCaptured(ctx, id, b.Payment.AuthorizationID)
}

func (s *Service) markCaptured(ctx context.Context, id, intentID string) (*Booking, error) {
	now := s.now().UTC()
	return s.store.Update(ctx, id, func(b *Booking) error {
		if b.Payment == nil || b.Payment.AuthorizationID != intentID || b.Status != StatusAuthorized {
			return nil
		}
		if err := transition(b, StatusCaptured); err != nil {
			return err
		}
		b.Payment.Status = payment.StatusSucceeded
		b.Payment.CapturedAt = &now
		b.UpdatedAt = now
		return nil
	})
}

// Void releases the held commission; the booking stops being unlocked.
func (s *Service) Void(ctx context.Context, admin user.CurrentUser, id string) (*Booking, error) {
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	if s.payments == nil {
		return nil, fmt.Errorf("%w: %w", ErrPayment, payment.ErrDisabled)
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusAuthorized || b.Payment == nil {
		return nil, fmt.Errorf("%w: cannot void a %s booking", ErrInvalidTransition, b.Status)
	}
	if err := s.payments.Void(ctx, b.Payment.AuthorizationID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayment, err)
	}
	updated, err := s.markVoided(ctx, id, b.Payment.AuthorizationID)
	if err != nil {
		return nil, err
	}
	s.notifyVoided(ctx, updated)
	return updated, nil
}

func (s *Service) markVoided(ctx context.Context, id, intentID string) (*Booking, error) {
	now := s.now().UTC()
	return s.store.Update(ctx, id, func(b *Booking) error {
		if b.Payment == nil || b.Payment.AuthorizationID != intentID || b.Status != StatusAuthorized {
			return nil
		}
		if err := transition(b, StatusVoided); err != nil {
			return err
		}
		b.Payment.Status = payment.StatusCanceled
		b.Payment.VoidedAt = &now
		b.UpdatedAt = now
		return nil
	})
}

// PaymentCaptured applies a provider capture notification.
func (s *Service) PaymentCaptured(ctx context.Context, bookingID, intentID string) error {
	_, err := s.markCaptured(ctx, bookingID, intentID)
	if IsErrNotFound(err) {
		return nil
	}
	return err
}

// PaymentCanceled applies a provider cancellation. Bookings the user already
// cancelled are left alone.
func (s *Service) PaymentCanceled(ctx context.Context, bookingID, intentID string) error {
	before, err := s.store.Get(ctx, bookingID)
	if IsErrNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	updated, err := s.markVoided(ctx, bookingID, intentID)
	if err != nil {
		return err
	}
	if before.Status == StatusAuthorized && updated.Status == StatusVoided {
		s.notifyVoided(ctx, updated)
	}
	return nil
}

func (s *Service) SendMessage(ctx context.Context, cu user.CurrentUser, id string, in MessageInput) (*Message, error) {
	in.Trim()
	m, err := newMessage(cu.UID, cu.Email, in.Text, s.now())
	if err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, id, func(b *Booking) error {
		if !b.IsParty(cu.UID) {
			return fmt.Errorf("%w: not a party to this booking", ErrUnauthorized)
		}
		if b.Status == StatusCancelled {
			return fmt.Errorf("%w: booking is cancelled", ErrBadRequest)
		}
		b.Messages = appendMessage(b.Messages, m)
		b.UpdatedAt = m.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyMessage(ctx, cu, updated, m)
	return &m, nil
}

func (s *Service) MarkRead(ctx context.Context, cu user.CurrentUser, id string) (int, error) {
	n := 0
	_, err := s.store.Update(ctx, id, func(b *Booking) error {
		if !b.IsParty(cu.UID) {
			return fmt.Errorf("%w: not a party to this booking", ErrUnauthorized)
		}
		n = markRead(b.Messages, cu.UID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Get returns the booking as seen by cu. Moderators may read any booking but
// are never shown contact details.
func (s *Service) Get(ctx context.Context, cu user.CurrentUser, id string) (*View, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(cu.UID) && !cu.IsAdmin() {
		return nil, fmt.Errorf("%w: not a party to this booking", ErrUnauthorized)
	}
	return s.view(ctx, b, cu.UID)
}

func (s *Service) ListMine(ctx context.Context, cu user.CurrentUser) ([]View, error) {
	bs, err := s.store.ListByParty(ctx, cu.UID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(bs))
	for i := range bs {
		v, err := s.view(ctx, &bs[i], cu.UID)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, b *Booking, viewer string) (*View, error) {
	var listingContact user.Contact
	// the requester of a contact unlock sees the listing contact as it is now
	if b.Type == TypeContactUnlock && viewer == b.RequesterID && b.Status.IsUnlocked() {
		l, err := s.listings.Get(ctx, b.RideID)
		switch {
		case err == nil:
			listingContact = l.Contact()
		case listing.IsErrNotFound(err):
			listingContact = b.CounterpartyContact()
		default:
			return nil, err
		}
	}
	return &View{
		Booking:    b,
		Disclosure: Disclose(b, viewer, listingContact),
		CanReport:  b.IsParty(viewer) && CanReport(b, s.now()),
	}, nil
}

// Report files a problem report. The window is evaluated against the server
// clock inside the same transaction that flips the reported flag.
func (s *Service) Report(ctx context.Context, cu user.CurrentUser, id string, in ReportInput) (*Report, error) {
	in.Trim()
	if err := in.validate(id, cu.UID); err != nil {
		return nil, err
	}
	_, rep, err := s.store.FileReport(ctx, id, func(b *Booking) (*Report, error) {
		if !b.IsParty(cu.UID) {
			return nil, fmt.Errorf("%w: not a party to this booking", ErrUnauthorized)
		}
		now := s.now().UTC()
		if !CanReport(b, now) {
			return nil, fmt.Errorf("%w: booking %s cannot be reported", ErrReportClosed, b.ID)
		}
		b.Reported = true
		b.ReportedAt = &now
		b.UpdatedAt = now
		return &Report{
			BookingID:   b.ID,
			RideID:      b.RideID,
			ReporterID:  cu.UID,
			ReportedID:  b.OtherParty(cu.UID),
			Reason:      in.Reason,
			Message:     in.Message,
			Attachments: in.Attachments,
			Status:      ReportOpen,
			CreatedAt:   now,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	observability.ReportsFiled.Inc()
	s.log.WithFields(logrus.Fields{"bookingId": id, "uid": cu.UID, "reason": in.Reason}).Warn("booking reported")
	return rep, nil
}

var attachmentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// AttachmentPath reserves a storage object name for report evidence while
// the booking is still reportable.
func (s *Service) AttachmentPath(ctx context.Context, cu user.CurrentUser, id, contentType string) (string, error) {
	ext, ok := attachmentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type", ErrBadRequest)
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !b.IsParty(cu.UID) {
		return "", fmt.Errorf("%w: not a party to this booking", ErrUnauthorized)
	}
	if !CanReport(b, s.now()) {
		return "", fmt.Errorf("%w: booking %s cannot be reported", ErrReportClosed, b.ID)
	}
	return AttachmentPrefix(b.ID, cu.UID) + uuid.NewString() + ext, nil
}

func (s *Service) ListReports(ctx context.Context, admin user.CurrentUser, status string) ([]Report, error) {
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	status = strings.TrimSpace(status)
	switch status {
	case "", ReportOpen, ReportDismissed, ReportVoided:
	default:
		return nil, fmt.Errorf("%w: invalid report status", ErrBadRequest)
	}
	return s.store.ListReports(ctx, status, 100)
}

// ResolveReport closes an open report. Resolution "void" also releases the
// held payment of the reported booking.
func (s *Service) ResolveReport(ctx context.Context, admin user.CurrentUser, reportID string, in ResolveInput) (*Report, error) {
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	in.Trim()
	var final string
	switch in.Resolution {
	case "dismiss":
		final = ReportDismissed
	case "void":
		final = ReportVoided
	default:
		return nil, fmt.Errorf("%w: resolution must be dismiss or void", ErrBadRequest)
	}

	rep, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rep.Status != ReportOpen {
		return nil, fmt.Errorf("%w: report is already %s", ErrBadRequest, rep.Status)
	}
	if final == ReportVoided {
		if _, err := s.Void(ctx, admin, rep.BookingID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	return s.store.ResolveReport(ctx, reportID, func(r *Report) error {
		if r.Status != ReportOpen {
			return fmt.Errorf("%w: report is already %s", ErrBadRequest, r.Status)
		}
		r.Status = final
		r.Resolution = in.Note
		r.ResolvedBy = admin.UID
		r.ResolvedAt = &now
		return nil
	})
}

// ---- notifications ----

func (s *Service) notifyUnlocked(ctx context.Context, cu user.CurrentUser, b *Booking) {
	other := b.OtherParty(cu.UID)
	phone := b.CounterpartyPhone
	if other == b.RequesterID {
		phone = b.RequesterPhone
	}
	notify.Safe(ctx, s.notifier, s.log, notify.Message{
		UserID:    other,
		SenderUID: cu.UID,
		Type:      notify.TypeContactUnlocked,
		Title:     "Kontaktuppgifter upplåsta",
		Body:      fmt.Sprintf("Ni kan nu kontakta varandra om resan %s till %s.", b.Origin, b.Destination),
		Data:      map[string]string{"bookingId": b.ID},
		Phone:     phone,
	})
}

func (s *Service) notifyMessage(ctx context.Context, cu user.CurrentUser, b *Booking, m Message) {
	notify.Safe(ctx, s.notifier, s.log, notify.Message{
		UserID:    b.OtherParty(cu.UID),
		SenderUID: cu.UID,
		Type:      notify.TypeChatMessage,
		Title:     "Nytt meddelande från " + displayName(cu),
		Body:      utils.TrimMax(m.Text, 120),
		Data:      map[string]string{"bookingId": b.ID, "messageId": m.ID},
	})
}

func (s *Service) notifyVoided(ctx context.Context, b *Booking) {
	for _, uid := range []string{b.RequesterID, b.CounterpartyID} {
		notify.Safe(ctx, s.notifier, s.log, notify.Message{
			UserID: uid,
			Type:   notify.TypeBookingVoided,
			Title:  "Betalningen har släppts",
			Body:   fmt.Sprintf("Reservationen för resan %s till %s har hävts.", b.Origin, b.Destination),
			Data:   map[string]string{"bookingId": b.ID},
		})
	}
}

func displayName(cu user.CurrentUser) string {
	if cu.Name != "" {
		return cu.Name
	}
	if i := strings.Index(cu.Email, "@"); i > 0 {
		return cu.Email[:i]
	}
	return "Någon"
}

var _ payment.EventSink = (*Service)(nil)

package booking

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vagvanner/backend/internal/domain/listing"
)

const ReportsCollection = "reports"

// Store is the booking persistence. Every mutation runs as a read-modify-write
// on one booking document, so status checks inside fn see committed state.
type Store interface {
	// Create writes b unless a booking with the same id exists, in which case
	// the existing booking is returned with created=false.
	Create(ctx context.Context, b *Booking) (stored *Booking, created bool, err error)
	Get(ctx context.Context, id string) (*Booking, error)
	Update(ctx context.Context, id string, fn func(*Booking) error) (*Booking, error)
	// Unlock is Update that also tags the booking's listing with the booking
	// type in the same transaction.
	Unlock(ctx context.Context, id string, fn func(*Booking) error) (*Booking, error)
	ListByParty(ctx context.Context, uid string) ([]Booking, error)

	// FileReport stores the report returned by fn together with the booking
	// change fn made.
	FileReport(ctx context.Context, id string, fn func(*Booking) (*Report, error)) (*Booking, *Report, error)
	GetReport(ctx context.Context, id string) (*Report, error)
	ListReports(ctx context.Context, status string, limit int) ([]Report, error)
	ResolveReport(ctx context.Context, id string, fn func(*Report) error) (*Report, error)
}

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) col() *firestore.CollectionRef {
	return r.fs.Collection(Collection)
}

func (r *Repo) Create(ctx context.Context, b *Booking) (*Booking, bool, error) {
	ref := r.col().Doc(b.ID)
	var (
		out     *Booking
		created bool
	)
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err == nil {
			existing, derr := decode(snap)
			if derr != nil {
				return derr
			}
			out, created = existing, false
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}
		out, created = b, true
		return tx.Create(ref, b)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create booking: %w", err)
	}
	return out, created, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Booking, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return decode(snap)
}

func (r *Repo) Update(ctx context.Context, id string, fn func(*Booking) error) (*Booking, error) {
	return r.mutate(ctx, id, false, fn)
}

func (r *Repo) Unlock(ctx context.Context, id string, fn func(*Booking) error) (*Booking, error) {
	return r.mutate(ctx, id, true, fn)
}

func (r *Repo) mutate(ctx context.Context, id string, tagListing bool, fn func(*Booking) error) (*Booking, error) {
	ref := r.col().Doc(id)
	var out *Booking
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: booking %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		b, err := decode(snap)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		if err := tx.Set(ref, b); err != nil {
			return err
		}
		if tagListing && b.RideID != "" {
			lref := r.fs.Collection(listing.Collection).Doc(b.RideID)
			if err := tx.Set(lref, map[string]interface{}{
				"activeBookingType": string(b.Type),
			}, firestore.MergeAll); err != nil {
				return err
			}
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListByParty(ctx context.Context, uid string) ([]Booking, error) {
	seen := map[string]bool{}
	out := []Booking{}
	for _, field := range []string{"userId", "counterpartyId"} {
		iter := r.col().Where(field, "==", uid).Documents(ctx)
		bs, err := collect(iter)
		if err != nil {
			return nil, err
		}
		for _, b := range bs {
			if !seen[b.ID] {
				seen[b.ID] = true
				out = append(out, b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// FileReport keys the report by booking id; a booking can be reported once.
func (r *Repo) FileReport(ctx context.Context, id string, fn func(*Booking) (*Report, error)) (*Booking, *Report, error) {
	ref := r.col().Doc(id)
	rref := r.fs.Collection(ReportsCollection).Doc(id)
	var (
		outB *Booking
		outR *Report
	)
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: booking %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		b, err := decode(snap)
		if err != nil {
			return err
		}
		rep, err := fn(b)
		if err != nil {
			return err
		}
		if err := tx.Create(rref, rep); err != nil {
			return err
		}
		if err := tx.Set(ref, b); err != nil {
			return err
		}
		rep.ID = rref.ID
		outB, outR = b, rep
		return nil
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil, nil, fmt.Errorf("%w: booking already reported", ErrReportClosed)
	}
	if err != nil {
		return nil, nil, err
	}
	return outB, outR, nil
}

func (r *Repo) GetReport(ctx context.Context, id string) (*Report, error) {
	snap, err := r.fs.Collection(ReportsCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	var rep Report
	if err := snap.DataTo(&rep); err != nil {
		return nil, err
	}
	rep.ID = snap.Ref.ID
	return &rep, nil
}

func (r *Repo) ListReports(ctx context.Context, st string, limit int) ([]Report, error) {
	q := r.fs.Collection(ReportsCollection).Query
	if st != "" {
		q = q.Where("status", "==", st)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	iter := q.OrderBy("createdAt", firestore.Desc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	out := []Report{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		var rep Report
		if err := doc.DataTo(&rep); err != nil {
			continue
		}
		rep.ID = doc.Ref.ID
		out = append(out, rep)
	}
	return out, nil
}

func (r *Repo) ResolveReport(ctx context.Context, id string, fn func(*Report) error) (*Report, error) {
	ref := r.fs.Collection(ReportsCollection).Doc(id)
	var out *Report
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: report %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		var rep Report
		if err := snap.DataTo(&rep); err != nil {
			return err
		}
		rep.ID = id
		if err := fn(&rep); err != nil {
			return err
		}
		out = &rep
		return tx.Set(ref, &rep)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func collect(iter *firestore.DocumentIterator) ([]Booking, error) {
	defer iter.Stop()
	out := []Booking{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list bookings: %w", err)
		}
		b, err := decode(doc)
		if err != nil {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func decode(snap *firestore.DocumentSnapshot) (*Booking, error) {
	var b Booking
	if err := snap.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to decode booking %s: %w", snap.Ref.ID, err)
	}
	b.ID = snap.Ref.ID
	return &b, nil
}

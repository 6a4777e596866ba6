package listing

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const Collection = "rides"

// Store is the persistence the service needs. Repo is the Firestore implementation.
type Store interface {
	Create(ctx context.Context, l *Listing) (string, error)
	Get(ctx context.Context, id string) (*Listing, error)
	// Update runs fn on the current document inside a transaction and
	// writes the result back.
	Update(ctx context.Context, id string, fn func(*Listing) error) (*Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Listing, error)
	CountActive(ctx context.Context, ownerID string, role Role) (int, error)
	// Recent returns up to limit active listings, newest first.
	Recent(ctx context.Context, limit int) ([]Listing, error)
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

func (r *Repo) Create(ctx context.Context, l *Listing) (string, error) {
	ref := r.col().NewDoc()
	if _, err := ref.Set(ctx, l); err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	return ref.ID, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Listing, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: listing %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return decode(snap)
}

func (r *Repo) Update(ctx context.Context, id string, fn func(*Listing) error) (*Listing, error) {
	ref := r.col().Doc(id)
	var out *Listing
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: listing %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		l, err := decode(snap)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		out = l
		return tx.Set(ref, l)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]Listing, error) {
	iter := r.col().Where("ownerId", "==", ownerID).Documents(ctx)
	return collect(iter)
}

// CountActive filters archived and status client-side; documents written by
// older clients may lack either field.
func (r *Repo) CountActive(ctx context.Context, ownerID string, role Role) (int, error) {
	iter := r.col().
		Where("ownerId", "==", ownerID).
		Where("role", "==", string(role)).
		Documents(ctx)
	ls, err := collect(iter)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range ls {
		if l.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *Repo) Recent(ctx context.Context, limit int) ([]Listing, error) {
	iter := r.col().
		Where("status", "==", string(StatusActive)).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	return collect(iter)
}

func collect(iter *firestore.DocumentIterator) ([]Listing, error) {
	defer iter.Stop()
	out := []Listing{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list listings: %w", err)
		}
		l, err := decode(doc)
		if err != nil {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func decode(snap *firestore.DocumentSnapshot) (*Listing, error) {
	var l Listing
	if err := snap.DataTo(&l); err != nil {
		return nil, fmt.Errorf("failed to decode listing %s: %w", snap.Ref.ID, err)
	}
	l.ID = snap.Ref.ID
	return &l, nil
}

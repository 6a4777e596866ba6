package alert

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Store interface {
	Create(ctx context.Context, a *Alert) (string, error)
	Update(ctx context.Context, id string, fn func(*Alert) error) (*Alert, error)
	ListByUser(ctx context.Context, uid string) ([]Alert, error)
	ListActive(ctx context.Context) ([]Alert, error)
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

func (r *Repo) Create(ctx context.Context, a *Alert) (string, error) {
	ref := r.col().NewDoc()
	if _, err := ref.Set(ctx, a); err != nil {
		return "", fmt.Errorf("failed to create alert: %w", err)
	}
	return ref.ID, nil
}

func (r *Repo) Update(ctx context.Context, id string, fn func(*Alert) error) (*Alert, error) {
	ref := r.col().Doc(id)
	var out *Alert
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: alert %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		var a Alert
		if err := snap.DataTo(&a); err != nil {
			return err
		}
		a.ID = id
		if err := fn(&a); err != nil {
			return err
		}
		out = &a
		return tx.Set(ref, &a)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListByUser(ctx context.Context, uid string) ([]Alert, error) {
	return collect(r.col().Where("userId", "==", uid).Documents(ctx))
}

func (r *Repo) ListActive(ctx context.Context) ([]Alert, error) {
	return collect(r.col().Where("active", "==", true).Documents(ctx))
}

func collect(iter *firestore.DocumentIterator) ([]Alert, error) {
	defer iter.Stop()
	out := []Alert{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list alerts: %w", err)
		}
		var a Alert
		if err := doc.DataTo(&a); err != nil {
			continue
		}
		a.ID = doc.Ref.ID
		out = append(out, a)
	}
	return out, nil
}

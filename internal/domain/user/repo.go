package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

func IsErrNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsErrBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) doc(uid string) *firestore.DocumentRef {
	return r.fs.Collection("users").Doc(uid)
}

func (r *Repo) Get(ctx context.Context, uid string) (*Profile, error) {
	doc, err := r.doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, uid)
	}
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		p.UID = uid
	}
	return &p, nil
}

// UpsertMinimal makes sure a profile document exists for the caller.
func (r *Repo) UpsertMinimal(ctx context.Context, cu CurrentUser) error {
	updates := map[string]any{
		"uid":       cu.UID,
		"updatedAt": time.Now().UTC(),
	}
	if cu.Email != "" {
		updates["email"] = cu.Email
	}
	if cu.Name != "" {
		updates["displayName"] = cu.Name
	}
	_, err := r.doc(cu.UID).Set(ctx, updates, firestore.MergeAll)
	return err
}

func (r *Repo) UpdateProfile(ctx context.Context, uid string, in UpdateProfileInput) (*Profile, error) {
	in.Trim()
	updates := map[string]any{"updatedAt": time.Now().UTC()}
	if in.DisplayName != nil {
		if *in.DisplayName == "" || len(*in.DisplayName) > 80 {
			return nil, fmt.Errorf("%w: displayName must be 1-80 characters", ErrBadRequest)
		}
		updates["displayName"] = *in.DisplayName
	}
	if in.Phone != nil {
		if len(*in.Phone) > 20 {
			return nil, fmt.Errorf("%w: phone is too long", ErrBadRequest)
		}
		updates["phone"] = *in.Phone
	}
	if _, err := r.doc(uid).Set(ctx, updates, firestore.MergeAll); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return r.Get(ctx, uid)
}

func (r *Repo) Tokens(ctx context.Context, uid string) ([]string, error) {
	p, err := r.Get(ctx, uid)
	if IsErrNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.FCMTokens, nil
}

func (r *Repo) AddToken(ctx context.Context, uid, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrBadRequest)
	}
	_, err := r.doc(uid).Set(ctx, map[string]any{
		"fcmTokens": firestore.ArrayUnion(token),
		"updatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	return err
}

func (r *Repo) RemoveTokens(ctx context.Context, uid string, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(tokens))
	for _, t := range tokens {
		vals = append(vals, t)
	}
	_, err := r.doc(uid).Set(ctx, map[string]any{
		"fcmTokens": firestore.ArrayRemove(vals...),
		"updatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	return err
}

package user

import "context"

// ProfileReader is satisfied by *Repo.
type ProfileReader interface {
	Get(ctx context.Context, uid string) (*Profile, error)
}

// ResolveContact returns the caller's contact: token claims first, gaps
// filled from the stored profile. A nil reader or a missing profile yields
// the claims alone; other read errors are returned with the claims.
func ResolveContact(ctx context.Context, profiles ProfileReader, cu CurrentUser) (Contact, error) {
	c := cu.Contact()
	if profiles == nil || cu.UID == "" {
		return c, nil
	}
	p, err := profiles.Get(ctx, cu.UID)
	if IsErrNotFound(err) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	c = c.Merge(p.Contact())
	c.Trim()
	return c, nil
}

package user

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type profileMap map[string]*Profile

func (m profileMap) Get(_ context.Context, uid string) (*Profile, error) {
	if uid == "broken" {
		return nil, errors.New("unavailable")
	}
	p, ok := m[uid]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, uid)
	}
	return p, nil
}

func TestResolveContact(t *testing.T) {
	ctx := context.Background()
	profiles := profileMap{
		"eve": {UID: "eve", DisplayName: "Eve", Phone: "070 444 44 44", Email: "old@example.se"},
	}

	// email sign-in: the phone only exists on the profile
	c, err := ResolveContact(ctx, profiles, CurrentUser{UID: "eve", Email: "eve@example.se"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Phone != "0704444444" || c.Email != "eve@example.se" || c.Name != "Eve" {
		t.Fatalf("got %+v", c)
	}

	c, err = ResolveContact(ctx, profiles, CurrentUser{UID: "new", Phone: "0705555555"})
	if err != nil || c.Phone != "0705555555" {
		t.Fatalf("missing profile: %+v %v", c, err)
	}

	c, err = ResolveContact(ctx, nil, CurrentUser{UID: "eve", Email: "eve@example.se"})
	if err != nil || c.Phone != "" {
		t.Fatalf("nil reader: %+v %v", c, err)
	}

	c, err = ResolveContact(ctx, profiles, CurrentUser{UID: "broken", Email: "b@example.se"})
	if err == nil || c.Email != "b@example.se" {
		t.Fatalf("read error: %+v %v", c, err)
	}
}

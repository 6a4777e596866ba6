package uploads

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPutURL(t *testing.T) {
	var signed int
	s := newSigner("vagvanner.appspot.com", "signer@vagvanner.iam.gserviceaccount.com", func(_ context.Context, b []byte) ([]byte, error) {
		signed++
		return []byte("signature"), nil
	})
	before := time.Now()

	u, err := s.PutURL(context.Background(), "reports/b1/pia/x.png", "image/png", 0)
	if err != nil {
		t.Fatal(err)
	}
	if signed != 1 {
		t.Fatalf("signed %d times", signed)
	}
	if !strings.Contains(u.URL, "vagvanner.appspot.com") || !strings.Contains(u.URL, "reports/b1/pia/x.png") {
		t.Fatalf("url %s", u.URL)
	}
	if !strings.Contains(u.URL, "X-Goog-Signature=") || !strings.Contains(u.URL, "X-Goog-Expires=") {
		t.Fatalf("not a v4 signed url: %s", u.URL)
	}
	if u.Method != "PUT" || u.ContentType != "image/png" {
		t.Fatalf("got %+v", u)
	}
	if u.ExpiresAt.Before(before.Add(DefaultTTL)) || u.ExpiresAt.After(time.Now().Add(DefaultTTL)) {
		t.Fatalf("expiry %v not default ttl", u.ExpiresAt)
	}
}

func TestPutURLSignError(t *testing.T) {
	s := newSigner("b", "sa@x", func(context.Context, []byte) ([]byte, error) {
		return nil, errors.New("permission denied")
	})
	if _, err := s.PutURL(context.Background(), "reports/a", "", time.Minute); err == nil {
		t.Fatal("expected error")
	}
}

func TestDisabledSigner(t *testing.T) {
	s, closeFn, err := NewSigner(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if s.Enabled() {
		t.Fatal("signer without bucket must be disabled")
	}
	if _, err := s.PutURL(context.Background(), "reports/a", "image/png", 0); !errors.Is(err, ErrDisabled) {
		t.Fatalf("got %v", err)
	}
}

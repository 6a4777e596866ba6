package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"

	"vagvanner/backend/internal/config"
	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/payment"
	"vagvanner/backend/internal/lock"
	"vagvanner/backend/internal/logging"
)

// fakeVerifier accepts "uid" or "uid:admin" as the bearer token.
type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, tok string) (*auth.Token, error) {
	if tok == "" || tok == "expired" {
		return nil, errors.New("token expired")
	}
	uid, role, _ := strings.Cut(tok, ":")
	claims := map[string]any{"email": uid + "@example.se", "name": strings.ToUpper(uid[:1]) + uid[1:]}
	if role == "admin" {
		claims["admin"] = true
	}
	return &auth.Token{UID: uid, Claims: claims}, nil
}

type listingStore struct {
	mu   sync.Mutex
	seq  int
	docs map[string]listing.Listing
}

func (m *listingStore) Create(_ context.Context, l *listing.Listing) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("l%d", m.seq)
	cp := *l
	cp.ID = id
	m.docs[id] = cp
	return id, nil
}

func (m *listingStore) Get(_ context.Context, id string) (*listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: listing %s", listing.ErrNotFound, id)
	}
	return &l, nil
}

func (m *listingStore) Update(_ context.Context, id string, fn func(*listing.Listing) error) (*listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: listing %s", listing.ErrNotFound, id)
	}
	if err := fn(&l); err != nil {
		return nil, err
	}
	m.docs[id] = l
	return &l, nil
}

func (m *listingStore) ListByOwner(_ context.Context, ownerID string) ([]listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []listing.Listing
	for _, l := range m.docs {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *listingStore) CountActive(_ context.Context, ownerID string, role listing.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.docs {
		if l.OwnerID == ownerID && l.Role == role && l.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *listingStore) Recent(_ context.Context, limit int) ([]listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []listing.Listing
	for _, l := range m.docs {
		if l.Status == listing.StatusActive {
			out = append(out, l)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logging.Discard()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	listings := listing.NewService(&listingStore{docs: map[string]listing.Listing{}}, lock.NewLocal(), nil, log, listing.Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	return NewRouter(RouterDeps{
		Cfg:      config.Config{AllowedOrigins: []string{"http://localhost:3000"}},
		Log:      log,
		Verifier: fakeVerifier{},
		Listings: listings,
		Webhook:  payment.NewWebhookHandler("whsec_test", nil, log),
	})
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var e APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	return e
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/v1/listings/mine", "", "")
	if rec.Code != http.StatusUnauthorized || decodeError(t, rec).Code != "unauthorized" {
		t.Fatalf("no token: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/v1/listings/mine", "expired", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/v1/admin/reports", "pia", "")
	if rec.Code != http.StatusForbidden || decodeError(t, rec).Code != "forbidden" {
		t.Fatalf("admin route as user: %d %s", rec.Code, rec.Body.String())
	}
}

const driverListing = `{
	"role": "driver",
	"originCity": "Göteborg",
	"destinationCity": "Stockholm",
	"date": "2026-06-05",
	"time": "08:00",
	"seats": 3,
	"costMode": "cost_share",
	"price": 250,
	"contactPhone": "0703333333"
}`

func TestSubmitAndDiscover(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/listings", "dan", driverListing)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "0703333333") {
		t.Fatalf("contact phone leaked: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/v1/listings?role=driver&from=goteborg", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("discover: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Stockholm") {
		t.Fatalf("listing not discovered: %s", rec.Body.String())
	}
}

func TestSubmitErrorsAreMapped(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/listings", "dan", "{not json")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_json" {
		t.Fatalf("bad json: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/v1/listings", "dan", `{"role":"driver","originCity":"Lund"}`)
	e := decodeError(t, rec)
	if rec.Code != http.StatusBadRequest || e.Code != "bad_request" || e.Detail == "" {
		t.Fatalf("invalid listing: %d %+v", rec.Code, e)
	}

	for i := 0; i < listing.MaxActive(listing.RoleDriver); i++ {
		if rec := do(t, h, http.MethodPost, "/v1/listings", "eve", driverListing); rec.Code != http.StatusCreated {
			t.Fatalf("submit %d: %d %s", i, rec.Code, rec.Body.String())
		}
	}
	rec = do(t, h, http.MethodPost, "/v1/listings", "eve", driverListing)
	if rec.Code != http.StatusConflict || decodeError(t, rec).Code != "limit_reached" {
		t.Fatalf("over quota: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/v1/listings/missing", "eve", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing listing: %d", rec.Code)
	}
}

func TestListingOwnerOnlyLifecycle(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/v1/listings", "dan", driverListing)
	var l listing.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil || l.ID == "" {
		t.Fatalf("submit: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/v1/listings/"+l.ID+"/cancel", "pia", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cancel by stranger: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/listings/"+l.ID+"/cancel", "dan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel by owner: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUploadsDisabled(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodPost, "/v1/bookings/b1/report/attachments", "pia", `{"contentType":"image/png"}`)
	if rec.Code != http.StatusServiceUnavailable || decodeError(t, rec).Code != "uploads_disabled" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(`{"type":"payment_intent.succeeded"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/domain/user"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// WithAuth verifies the Firebase ID token and stores the caller as a
// user.CurrentUser on the request context.
func WithAuth(v TokenVerifier, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
				deny(w, http.StatusUnauthorized, "Du måste logga in.", "unauthorized")
				return
			}
			idToken := strings.TrimSpace(h[len("Bearer "):])

			tok, err := v.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				log.WithError(err).Debug("id token rejected")
				deny(w, http.StatusUnauthorized, "Din inloggning har gått ut. Logga in igen.", "unauthorized")
				return
			}

			ctx := WithCurrentUser(r.Context(), FromToken(tok))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromToken builds the caller from verified token claims.
func FromToken(tok *auth.Token) user.CurrentUser {
	cu := user.CurrentUser{UID: tok.UID, Claims: tok.Claims}
	if v, ok := tok.Claims["email"].(string); ok {
		cu.Email = v
	}
	if v, ok := tok.Claims["phone_number"].(string); ok {
		cu.Phone = v
	}
	if v, ok := tok.Claims["name"].(string); ok {
		cu.Name = v
	}
	return cu
}

// RequireAdmin must run after WithAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cu, ok := CurrentUser(r.Context())
		if !ok || !cu.IsAdmin() {
			deny(w, http.StatusForbidden, "Endast för administratörer.", "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithCurrentUser(ctx context.Context, cu user.CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserKey, cu)
}

func CurrentUser(ctx context.Context) (user.CurrentUser, bool) {
	cu, ok := ctx.Value(currentUserKey).(user.CurrentUser)
	return cu, ok && cu.UID != ""
}

func deny(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg, "code": code})
}

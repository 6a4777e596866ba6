package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/config"
	"vagvanner/backend/internal/domain/alert"
	"vagvanner/backend/internal/domain/booking"
	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/middleware"
	"vagvanner/backend/internal/notify"
	"vagvanner/backend/internal/uploads"
)

// ProfileStore is implemented by user.Repo.
type ProfileStore interface {
	Get(ctx context.Context, uid string) (*user.Profile, error)
	UpsertMinimal(ctx context.Context, cu user.CurrentUser) error
	UpdateProfile(ctx context.Context, uid string, in user.UpdateProfileInput) (*user.Profile, error)
	AddToken(ctx context.Context, uid, token string) error
	RemoveTokens(ctx context.Context, uid string, tokens ...string) error
}

// InboxStore is implemented by notify.Inbox.
type InboxStore interface {
	List(ctx context.Context, uid string, unreadOnly bool, limit int) (*notify.ListResult, error)
	MarkRead(ctx context.Context, uid string, in notify.MarkReadInput) (int, error)
}

type AttachmentSigner interface {
	PutURL(ctx context.Context, objectPath, contentType string, ttl time.Duration) (*uploads.SignedURL, error)
}

type RouterDeps struct {
	Cfg      config.Config
	Log      logrus.FieldLogger
	Verifier middleware.TokenVerifier
	Profiles ProfileStore
	Inbox    InboxStore
	Listings *listing.Service
	Bookings *booking.Service
	Alerts   *alert.Service
	Uploads  AttachmentSigner
	// Webhook is the payment provider callback; nil when payments are off.
	Webhook http.Handler
}

type api struct {
	RouterDeps
}

func NewRouter(d RouterDeps) http.Handler {
	a := &api{RouterDeps: d}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.Cfg.AllowedOrigins, d.Log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})
	r.Handle("/metrics", promhttp.Handler())

	if d.Webhook != nil {
		r.Method(http.MethodPost, "/v1/payments/webhook", d.Webhook)
	}

	// public discovery
	r.Get("/v1/listings", a.discoverListings)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.Verifier, d.Log))

		pr.Get("/v1/me", a.me)
		pr.Get("/v1/me/profile", a.getProfile)
		pr.Put("/v1/me/profile", a.updateProfile)

		pr.Post("/v1/listings", a.submitListing)
		pr.Get("/v1/listings/mine", a.myListings)
		pr.Get("/v1/listings/{id}", a.getListing)
		pr.Put("/v1/listings/{id}", a.updateListing)
		pr.Delete("/v1/listings/{id}", a.deleteListing)
		pr.Post("/v1/listings/{id}/cancel", a.cancelListing)
		pr.Post("/v1/listings/{id}/archive", a.archiveListing)

		pr.Post("/v1/alerts", a.createAlert)
		pr.Get("/v1/alerts", a.myAlerts)
		pr.Post("/v1/alerts/{id}/deactivate", a.deactivateAlert)

		pr.Post("/v1/bookings/seat", a.requestSeat)
		pr.Post("/v1/bookings/contact", a.startContactUnlock)
		pr.Post("/v1/bookings/direct", a.unlockDirect)
		pr.Get("/v1/bookings", a.myBookings)
		pr.Get("/v1/bookings/{id}", a.getBooking)
		pr.Post("/v1/bookings/{id}/payment-intent", a.createPaymentIntent)
		pr.Post("/v1/bookings/{id}/unlock", a.unlockWithPayment)
		pr.Post("/v1/bookings/{id}/cancel", a.cancelBooking)
		pr.Post("/v1/bookings/{id}/messages", a.sendMessage)
		pr.Post("/v1/bookings/{id}/read", a.markBookingRead)
		pr.Post("/v1/bookings/{id}/report", a.reportBooking)
		pr.Post("/v1/bookings/{id}/report/attachments", a.reportAttachment)

		pr.Get("/v1/notifications", a.listNotifications)
		pr.Post("/v1/notifications/read", a.markNotificationsRead)
		pr.Post("/v1/notifications/tokens", a.registerToken)
		pr.Delete("/v1/notifications/tokens", a.removeToken)

		pr.Route("/v1/admin", func(ar chi.Router) {
			ar.Use(middleware.RequireAdmin)
			ar.Get("/reports", a.listReports)
			ar.Post("/reports/{id}/resolve", a.resolveReport)
			ar.Post("/bookings/{id}/capture", a.captureBooking)
			ar.Post("/bookings/{id}/void", a.voidBooking)
		})
	})

	return r
}

// caller is only called behind WithAuth.
func caller(r *http.Request) user.CurrentUser {
	cu, _ := middleware.CurrentUser(r.Context())
	return cu
}

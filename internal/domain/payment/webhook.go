package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// EventSink receives settled payment outcomes for bookings.
type EventSink interface {
	PaymentCaptured(ctx context.Context, bookingID, intentID string) error
	PaymentCanceled(ctx context.Context, bookingID, intentID string) error
}

type WebhookHandler struct {
	secret string
	sink   EventSink
	log    logrus.FieldLogger
}

func NewWebhookHandler(secret string, sink EventSink, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{secret: secret, sink: sink, log: log}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const MaxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.WithError(err).Warn("webhook: error reading request body")
		http.Error(w, "Error reading request body", http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.secret)
	if err != nil {
		h.log.WithError(err).Warn("webhook: signature verification failed")
		http.Error(w, fmt.Sprintf("Webhook signature verification failed: %v", err), http.StatusBadRequest)
		return
	}

	log := h.log.WithFields(logrus.Fields{"event": event.Type, "eventId": event.ID})
	log.Info("webhook: received event")

	if err := h.dispatch(r.Context(), event); err != nil {
		if IsErrBadRequest(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// the sink is idempotent, so a failed write is left for the provider to retry
		log.WithError(err).Error("webhook: handler failed")
		http.Error(w, "event not processed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received": true}`))
}

func (h *WebhookHandler) dispatch(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.canceled":
	default:
		h.log.WithField("event", event.Type).Debug("webhook: unhandled event type")
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("%w: error parsing payment intent: %v", ErrBadRequest, err)
	}
	bookingID := pi.Metadata["bookingId"]
	if bookingID == "" {
		return nil
	}

	if event.Type == "payment_intent.succeeded" {
		return h.sink.PaymentCaptured(ctx, bookingID, pi.ID)
	}
	return h.sink.PaymentCanceled(ctx, bookingID, pi.ID)
}

package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"vagvanner/backend/internal/logging"
)

type sinkCall struct{ kind, bookingID, intentID string }

type fakeSink struct {
	calls []sinkCall
	err   error
}

func (f *fakeSink) PaymentCaptured(_ context.Context, bookingID, intentID string) error {
	f.calls = append(f.calls, sinkCall{"captured", bookingID, intentID})
	return f.err
}

func (f *fakeSink) PaymentCanceled(_ context.Context, bookingID, intentID string) error {
	f.calls = append(f.calls, sinkCall{"canceled", bookingID, intentID})
	return nil
}

const testSecret = "whsec_test"

func signedRequest(t *testing.T, eventType, bookingID string) *http.Request {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"api_version": %q,
		"type": %q,
		"data": {"object": {"id": "pi_1", "object": "payment_intent", "metadata": {"bookingId": %q}}}
	}`, stripe.APIVersion, eventType, bookingID))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestWebhookDispatchesPaymentIntentEvents(t *testing.T) {
	sink := &fakeSink{}
	h := NewWebhookHandler(testSecret, sink, logging.Discard())

	for _, typ := range []string{"payment_intent.succeeded", "payment_intent.canceled", "charge.refunded"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, signedRequest(t, typ, "contact_unlock_l1_u1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d body %s", typ, rec.Code, rec.Body.String())
		}
	}

	if len(sink.calls) != 2 {
		t.Fatalf("calls = %+v", sink.calls)
	}
	if sink.calls[0] != (sinkCall{"captured", "contact_unlock_l1_u1", "pi_1"}) {
		t.Errorf("first call = %+v", sink.calls[0])
	}
	if sink.calls[1].kind != "canceled" {
		t.Errorf("second call = %+v", sink.calls[1])
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	sink := &fakeSink{}
	h := NewWebhookHandler(testSecret, sink, logging.Discard())

	req := signedRequest(t, "payment_intent.succeeded", "b1")
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(sink.calls) != 0 {
		t.Errorf("sink called on bad signature")
	}
}

func TestWebhookSinkFailureIsRetried(t *testing.T) {
	sink := &fakeSink{err: errors.New("firestore: deadline exceeded")}
	h := NewWebhookHandler(testSecret, sink, logging.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, "payment_intent.succeeded", "contact_unlock_l1_u1"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the event is redelivered", rec.Code)
	}

	sink.err = nil
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, "payment_intent.succeeded", "contact_unlock_l1_u1"))
	if rec.Code != http.StatusOK || len(sink.calls) != 2 {
		t.Fatalf("redelivery: status %d calls %+v", rec.Code, sink.calls)
	}
}

package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Stripe holds the contact unlock commission with a manual-capture
// PaymentIntent. Capture and Void settle or release the hold.
type Stripe struct {
	log logrus.FieldLogger
}

func NewStripe(secretKey string, log logrus.FieldLogger) *Stripe {
	stripe.Key = secretKey
	return &Stripe{log: log}
}

func (s *Stripe) CreateIntent(ctx context.Context, in IntentInput) (*Intent, error) {
	if in.BookingID == "" || in.AmountMinor <= 0 || in.Currency == "" {
		return nil, fmt.Errorf("%w: bookingId, amount and currency are required", ErrBadRequest)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(in.AmountMinor),
		Currency:      stripe.String(in.Currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Description:   stripe.String(in.Description),
		Metadata: map[string]string{
			"bookingId": in.BookingID,
			"payerUid":  in.PayerUID,
		},
	}
	if in.PayerEmail != "" {
		params.ReceiptEmail = stripe.String(in.PayerEmail)
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	s.log.WithFields(logrus.Fields{"bookingId": in.BookingID, "paymentIntent": pi.ID}).Info("payment intent created")

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       NewAmount(pi.Amount, string(pi.Currency)),
	}, nil
}

func (s *Stripe) Authorization(ctx context.Context, intentID string) (*Authorization, error) {
	if intentID == "" {
		return nil, fmt.Errorf("%w: paymentIntentId is required", ErrBadRequest)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}
	return fromIntent(pi), nil
}

func (s *Stripe) Capture(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	if _, err := paymentintent.Capture(intentID, params); err != nil {
		return fmt.Errorf("failed to capture payment intent: %w", err)
	}
	return nil
}

// Void releases the hold.
func (s *Stripe) Void(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := paymentintent.Cancel(intentID, params); err != nil {
		return fmt.Errorf("failed to cancel payment intent: %w", err)
	}
	return nil
}

func fromIntent(pi *stripe.PaymentIntent) *Authorization {
	a := &Authorization{
		ID:       pi.ID,
		Status:   string(pi.Status),
		Amount:   NewAmount(pi.Amount, string(pi.Currency)),
		Minor:    pi.Amount,
		Metadata: pi.Metadata,
		Payer: Payer{
			ID:    pi.Metadata["payerUid"],
			Email: pi.ReceiptEmail,
		},
	}
	if pi.Customer != nil {
		a.Payer.Name = pi.Customer.Name
		if a.Payer.Email == "" {
			a.Payer.Email = pi.Customer.Email
		}
	}
	if pi.LastResponse != nil && len(pi.LastResponse.RawJSON) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(pi.LastResponse.RawJSON, &raw); err == nil {
			delete(raw, "client_secret")
			a.Raw = raw
		}
	}
	return a
}

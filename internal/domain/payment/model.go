package payment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrDeclined   = errors.New("payment declined")
	ErrDisabled   = errors.New("payments disabled")
)

func IsErrBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }
func IsErrDeclined(err error) bool   { return errors.Is(err, ErrDeclined) }
func IsErrDisabled(err error) bool   { return errors.Is(err, ErrDisabled) }

// Provider-side authorization states.
const (
	StatusRequiresPayment = "requires_payment_method"
	StatusRequiresCapture = "requires_capture"
	StatusSucceeded       = "succeeded"
	StatusCanceled        = "canceled"
	StatusProcessing      = "processing"
)

// Amount mirrors the provider's {value, currency_code} pair.
type Amount struct {
	Value        string `firestore:"value" json:"value"`
	CurrencyCode string `firestore:"currency_code" json:"currency_code"`
}

type Payer struct {
	ID    string `firestore:"id,omitempty" json:"id,omitempty"`
	Email string `firestore:"email,omitempty" json:"email,omitempty"`
	Name  string `firestore:"name,omitempty" json:"name,omitempty"`
}

// Authorization is what the provider reports about a payment. Raw keeps the
// provider's response verbatim.
type Authorization struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   Amount            `json:"amount"`
	Minor    int64             `json:"-"`
	Payer    Payer             `json:"payer"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Raw      map[string]any    `json:"-"`
}

func (a Authorization) Held() bool      { return a.Status == StatusRequiresCapture }
func (a Authorization) Captured() bool  { return a.Status == StatusSucceeded }
func (a Authorization) BookingID() string { return a.Metadata["bookingId"] }

type IntentInput struct {
	BookingID  string
	PayerUID   string
	PayerEmail string
	// AmountMinor is in the currency's minor unit (öre).
	AmountMinor int64
	Currency    string
	Description string
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       Amount `json:"amount"`
}

// FormatMinor renders minor units as a decimal string: 5000 -> "50", 5050 -> "50.50".
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	if minor%100 == 0 {
		return fmt.Sprintf("%s%d", sign, minor/100)
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func NewAmount(minor int64, currency string) Amount {
	return Amount{Value: FormatMinor(minor), CurrencyCode: strings.ToUpper(currency)}
}

// Verify checks that a is a held or captured payment of want for bookingID.
func Verify(a *Authorization, bookingID string, want int64, currency string) error {
	if a == nil {
		return fmt.Errorf("%w: no authorization", ErrDeclined)
	}
	if !a.Held() && !a.Captured() {
		return fmt.Errorf("%w: payment is %s", ErrDeclined, a.Status)
	}
	if a.Minor != want || !strings.EqualFold(a.Amount.CurrencyCode, currency) {
		return fmt.Errorf("%w: amount %s %s does not match", ErrBadRequest, a.Amount.Value, a.Amount.CurrencyCode)
	}
	if a.BookingID() != bookingID {
		return fmt.Errorf("%w: payment belongs to another booking", ErrBadRequest)
	}
	return nil
}

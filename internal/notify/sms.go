package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// SMS sends a text for messages that carry a phone number. Everything else
// is ignored.
type SMS struct {
	api        messageCreator
	fromNumber string
}

func NewSMS(accountSID, authToken, fromNumber string) *SMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMS{api: client.Api, fromNumber: fromNumber}
}

func (s *SMS) Notify(_ context.Context, msg Message) error {
	if msg.Phone == "" {
		return nil
	}

	params := &api.CreateMessageParams{}
	params.SetTo(msg.Phone)
	params.SetFrom(s.fromNumber)
	params.SetBody(smsBody(msg))

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("sms: %w", err)
	}
	return nil
}

func smsBody(msg Message) string {
	if msg.Body == "" {
		return "VägVänner: " + msg.Title
	}
	return "VägVänner: " + msg.Title + "\n" + msg.Body
}

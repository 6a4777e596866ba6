package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
)

// TokenStore resolves and prunes a user's FCM registration tokens.
type TokenStore interface {
	Tokens(ctx context.Context, uid string) ([]string, error)
	RemoveTokens(ctx context.Context, uid string, tokens ...string) error
}

// Push sends FCM notifications to every registered device of the user.
type Push struct {
	client *messaging.Client
	tokens TokenStore
	log    logrus.FieldLogger
}

func NewPush(client *messaging.Client, tokens TokenStore, log logrus.FieldLogger) *Push {
	return &Push{client: client, tokens: tokens, log: log}
}

func (p *Push) Notify(ctx context.Context, msg Message) error {
	tokens, err := p.tokens.Tokens(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("push: load tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	data := map[string]string{"type": msg.Type}
	for k, v := range msg.Data {
		data[k] = v
	}

	resp, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("push: send: %w", err)
	}

	var stale []string
	for i, r := range resp.Responses {
		if r.Success || r.Error == nil {
			continue
		}
		if messaging.IsRegistrationTokenNotRegistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
			stale = append(stale, tokens[i])
		}
	}
	if len(stale) > 0 {
		if err := p.tokens.RemoveTokens(ctx, msg.UserID, stale...); err != nil {
			p.log.WithError(err).WithField("uid", msg.UserID).Warn("failed to prune fcm tokens")
		}
	}
	if resp.SuccessCount == 0 && resp.FailureCount > 0 {
		return fmt.Errorf("push: all %d deliveries failed", resp.FailureCount)
	}
	return nil
}

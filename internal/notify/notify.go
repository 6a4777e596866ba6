// Package notify delivers user-facing notifications. Services receive a
// Notifier explicitly and treat delivery as best-effort.
package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/observability"
)

// Notification types.
const (
	TypeBookingRequested = "booking_requested"
	TypeContactUnlocked  = "contact_unlocked"
	TypeBookingCancelled = "booking_cancelled"
	TypeChatMessage      = "chat_message"
	TypeBookingVoided    = "booking_voided"
	TypeAlertMatch       = "alert_match"
)

type Message struct {
	UserID    string
	SenderUID string
	Type      string
	Title     string
	Body      string
	Data      map[string]string

	// Phone is set only for events that should also go out by SMS.
	Phone string
}

func (m *Message) Trim() {
	m.UserID = strings.TrimSpace(m.UserID)
	m.Title = strings.TrimSpace(m.Title)
	m.Body = strings.TrimSpace(m.Body)
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a func to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Fanout delivers to every channel and joins the failures.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops everything.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }

// Safe sends msg and logs a failure instead of returning it. A state change
// that already committed must not be rolled back by a failed notification.
func Safe(ctx context.Context, n Notifier, log logrus.FieldLogger, msg Message) {
	if n == nil || msg.UserID == "" {
		return
	}
	if err := n.Notify(ctx, msg); err != nil {
		observability.NotificationFailures.WithLabelValues(msg.Type).Inc()
		log.WithError(err).WithFields(logrus.Fields{
			"uid":   msg.UserID,
			"event": msg.Type,
		}).Warn("notification failed")
	}
}

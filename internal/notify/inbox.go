package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

var ErrBadRequest = errors.New("bad request")

func IsErrBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }

type Notification struct {
	ID        string            `firestore:"-" json:"id"`
	Title     string            `firestore:"title" json:"title"`
	Body      string            `firestore:"body" json:"body"`
	Type      string            `firestore:"type" json:"type"`
	Data      map[string]string `firestore:"data,omitempty" json:"data,omitempty"`
	Read      bool              `firestore:"read" json:"read"`
	ReadAt    *time.Time        `firestore:"readAt,omitempty" json:"readAt,omitempty"`
	SenderUID string            `firestore:"senderUid,omitempty" json:"senderUid,omitempty"`
	CreatedAt time.Time         `firestore:"createdAt" json:"createdAt"`
}

type ListResult struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unreadCount"`
}

type MarkReadInput struct {
	NotificationID string `json:"notificationId,omitempty"`
	MarkAll        bool   `json:"markAll,omitempty"`
}

func (in *MarkReadInput) Trim() {
	in.NotificationID = strings.TrimSpace(in.NotificationID)
}

// Inbox stores notifications under users/{uid}/notifications.
type Inbox struct {
	client *firestore.Client
}

func NewInbox(client *firestore.Client) *Inbox {
	return &Inbox{client: client}
}

func (s *Inbox) col(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("notifications")
}

func (s *Inbox) Notify(ctx context.Context, msg Message) error {
	msg.Trim()
	if msg.UserID == "" || msg.Title == "" {
		return fmt.Errorf("%w: userId and title are required", ErrBadRequest)
	}
	_, _, err := s.col(msg.UserID).Add(ctx, Notification{
		Title:     msg.Title,
		Body:      msg.Body,
		Type:      msg.Type,
		Data:      msg.Data,
		SenderUID: msg.SenderUID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *Inbox) List(ctx context.Context, uid string, unreadOnly bool, limit int) (*ListResult, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrBadRequest)
	}

	q := s.col(uid).Query
	if unreadOnly {
		q = q.Where("read", "==", false)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	iter := q.OrderBy("createdAt", firestore.Desc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	out := []Notification{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get notifications: %w", err)
		}
		var n Notification
		if err := doc.DataTo(&n); err != nil {
			continue
		}
		n.ID = doc.Ref.ID
		out = append(out, n)
	}

	unread := int64(0)
	q = s.col(uid).Where("read", "==", false)
	if agg, err := q.NewAggregationQuery().WithCount("n").Get(ctx); err == nil {
		unread = countOf(agg, "n")
	}

	return &ListResult{Notifications: out, UnreadCount: unread}, nil
}

// countOf reads a count aggregation; missing or malformed values count as 0.
func countOf(agg firestore.AggregationResult, alias string) int64 {
	if v, ok := agg[alias].(interface{ GetIntegerValue() int64 }); ok {
		return v.GetIntegerValue()
	}
	return 0
}

func (s *Inbox) MarkRead(ctx context.Context, uid string, in MarkReadInput) (int, error) {
	in.Trim()
	if uid == "" {
		return 0, fmt.Errorf("%w: uid is required", ErrBadRequest)
	}
	now := time.Now().UTC()

	if in.NotificationID != "" {
		_, err := s.col(uid).Doc(in.NotificationID).Set(ctx, map[string]interface{}{
			"read":   true,
			"readAt": now,
		}, firestore.MergeAll)
		if err != nil {
			return 0, fmt.Errorf("failed to mark notification as read: %w", err)
		}
		return 1, nil
	}
	if !in.MarkAll {
		return 0, fmt.Errorf("%w: notificationId or markAll is required", ErrBadRequest)
	}

	iter := s.col(uid).Where("read", "==", false).Documents(ctx)
	defer iter.Stop()
	bw := s.client.BulkWriter(ctx)
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("failed to get notifications: %w", err)
		}
		if _, err := bw.Update(doc.Ref, []firestore.Update{
			{Path: "read", Value: true},
			{Path: "readAt", Value: now},
		}); err != nil {
			bw.End()
			return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
		}
		count++
	}
	bw.End()
	return count, nil
}

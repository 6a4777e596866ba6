package booking

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxMessages bounds the chat kept on the booking document.
	MaxMessages   = 300
	maxMessageLen = 2000
)

func newMessage(senderUID, senderEmail, text string, now time.Time) (Message, error) {
	if text == "" {
		return Message{}, fmt.Errorf("%w: message text is required", ErrBadRequest)
	}
	if utf8.RuneCountInString(text) > maxMessageLen {
		return Message{}, fmt.Errorf("%w: message must be at most %d characters", ErrBadRequest, maxMessageLen)
	}
	return Message{
		ID:          uuid.NewString(),
		SenderUID:   senderUID,
		SenderEmail: senderEmail,
		Text:        text,
		CreatedAt:   now.UTC(),
	}, nil
}

// appendMessage appends m and keeps only the newest MaxMessages.
func appendMessage(msgs []Message, m Message) []Message {
	msgs = append(msgs, m)
	if n := len(msgs); n > MaxMessages {
		msgs = append([]Message(nil), msgs[n-MaxMessages:]...)
	}
	return msgs
}

// markRead marks every message not sent by uid as read and returns how many changed.
func markRead(msgs []Message, uid string) int {
	n := 0
	for i := range msgs {
		if msgs[i].SenderUID != uid && !msgs[i].Read {
			msgs[i].Read = true
			n++
		}
	}
	return n
}

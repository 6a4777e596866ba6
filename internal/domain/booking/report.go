package booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ReportWindow is how long after an unlock either party may report a problem.
const ReportWindow = 48 * time.Hour

func ReportWindowEnd(unlockedAt time.Time) time.Time {
	return unlockedAt.Add(ReportWindow)
}

// CanReport is true while the booking is unlocked, unreported and now is at
// or before the end of the window.
func CanReport(b *Booking, now time.Time) bool {
	if b == nil || !b.Status.IsUnlocked() || b.Reported || b.ReportWindowEndsAt == nil {
		return false
	}
	return !now.After(*b.ReportWindowEndsAt)
}

type ReportReason string

const (
	ReasonNoShow     ReportReason = "no_show"
	ReasonUnsafe     ReportReason = "unsafe"
	ReasonPayment    ReportReason = "payment"
	ReasonFraud      ReportReason = "fraud"
	ReasonHarassment ReportReason = "harassment"
	ReasonOther      ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonNoShow, ReasonUnsafe, ReasonPayment, ReasonFraud, ReasonHarassment, ReasonOther:
		return true
	}
	return false
}

const (
	ReportOpen      = "open"
	ReportDismissed = "dismissed"
	ReportVoided    = "voided"
)

type Report struct {
	ID          string       `firestore:"-" json:"id"`
	BookingID   string       `firestore:"bookingId" json:"bookingId"`
	RideID      string       `firestore:"rideId" json:"rideId"`
	ReporterID  string       `firestore:"reporterId" json:"reporterId"`
	ReportedID  string       `firestore:"reportedId" json:"reportedId"`
	Reason      ReportReason `firestore:"reason" json:"reason"`
	Message     string       `firestore:"message" json:"message"`
	Attachments []string     `firestore:"attachments,omitempty" json:"attachments,omitempty"`
	Status      string       `firestore:"status" json:"status"`
	Resolution  string       `firestore:"resolution,omitempty" json:"resolution,omitempty"`
	ResolvedBy  string       `firestore:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time   `firestore:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt   time.Time    `firestore:"createdAt" json:"createdAt"`
}

type ReportInput struct {
	Reason      ReportReason `json:"reason"`
	Message     string       `json:"message"`
	Attachments []string     `json:"attachments,omitempty"`
}

func (in *ReportInput) Trim() {
	in.Reason = ReportReason(strings.TrimSpace(string(in.Reason)))
	in.Message = strings.TrimSpace(in.Message)
}

const maxReportMessage = 2000

func (in *ReportInput) validate(bookingID, uid string) error {
	if !in.Reason.Valid() {
		return fmt.Errorf("%w: invalid report reason", ErrBadRequest)
	}
	if utf8.RuneCountInString(in.Message) > maxReportMessage {
		return fmt.Errorf("%w: message must be at most %d characters", ErrBadRequest, maxReportMessage)
	}
	if len(in.Attachments) > 5 {
		return fmt.Errorf("%w: at most 5 attachments", ErrBadRequest)
	}
	prefix := AttachmentPrefix(bookingID, uid)
	for _, a := range in.Attachments {
		if !strings.HasPrefix(a, prefix) {
			return fmt.Errorf("%w: attachment %q is not an upload for this report", ErrBadRequest, a)
		}
	}
	return nil
}

// AttachmentPrefix is the storage prefix for a party's report evidence.
func AttachmentPrefix(bookingID, uid string) string {
	return "reports/" + bookingID + "/" + uid + "/"
}

type ResolveInput struct {
	Resolution string `json:"resolution"` // dismiss|void
	Note       string `json:"note,omitempty"`
}

func (in *ResolveInput) Trim() {
	in.Resolution = strings.ToLower(strings.TrimSpace(in.Resolution))
	in.Note = strings.TrimSpace(in.Note)
}

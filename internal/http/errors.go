package http

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/domain/alert"
	"vagvanner/backend/internal/domain/booking"
	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/payment"
	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/notify"
	"vagvanner/backend/internal/uploads"
)

const (
	msgInternal  = "Något gick fel. Försök igen senare."
	msgForbidden = "Du har inte behörighet att göra det här."
	msgInvalid   = "Kontrollera uppgifterna och försök igen."
)

type errorMapper func(error) APIStatus

// APIStatus is a mapped error: the HTTP status and the user-facing body.
type APIStatus struct {
	Status int
	APIError
}

func status(code int, msg, category string) APIStatus {
	return APIStatus{Status: code, APIError: APIError{Message: msg, Code: category}}
}

// failWith maps err and writes it. Client errors carry the internal detail,
// server errors are logged and never leak it.
func failWith(w http.ResponseWriter, log logrus.FieldLogger, err error, m errorMapper) {
	st := m(err)
	if st.Status >= 500 {
		log.WithError(err).Error("request failed")
	} else if st.Status == http.StatusBadRequest {
		st.Detail = err.Error()
	}
	WriteJSON(w, st.Status, st.APIError)
}

func mapListingError(err error) APIStatus {
	switch {
	case listing.IsErrBadRequest(err):
		return status(http.StatusBadRequest, msgInvalid, "bad_request")
	case listing.IsErrLimitReached(err):
		return status(http.StatusConflict, "Du har redan max antal aktiva annonser för den här rollen.", "limit_reached")
	case listing.IsErrUnauthorized(err):
		return status(http.StatusForbidden, msgForbidden, "forbidden")
	case listing.IsErrNotFound(err):
		return status(http.StatusNotFound, "Annonsen hittades inte.", "not_found")
	case listing.IsErrUnavailable(err):
		return status(http.StatusServiceUnavailable, "Tjänsten svarar inte just nu. Försök igen om en stund.", "unavailable")
	default:
		return status(http.StatusInternalServerError, msgInternal, "internal")
	}
}

func mapBookingError(err error) APIStatus {
	switch {
	case booking.IsErrBadRequest(err):
		return status(http.StatusBadRequest, msgInvalid, "bad_request")
	case booking.IsErrUnauthorized(err):
		return status(http.StatusForbidden, msgForbidden, "forbidden")
	case booking.IsErrNotFound(err):
		return status(http.StatusNotFound, "Bokningen hittades inte.", "not_found")
	case booking.IsErrAlreadyUnlocked(err):
		return status(http.StatusConflict, "Kontaktuppgifterna är redan upplåsta.", "already_unlocked")
	case booking.IsErrInvalidTransition(err):
		return status(http.StatusConflict, "Bokningen kan inte ändras i sitt nuvarande läge.", "invalid_transition")
	case booking.IsErrReportClosed(err):
		return status(http.StatusConflict, "Det går inte längre att rapportera den här bokningen.", "report_closed")
	case booking.IsErrPayment(err):
		return mapPaymentError(err)
	default:
		return status(http.StatusInternalServerError, msgInternal, "internal")
	}
}

func mapPaymentError(err error) APIStatus {
	switch {
	case payment.IsErrDisabled(err):
		return status(http.StatusServiceUnavailable, "Betalningar är inte aktiverade.", "payments_disabled")
	case payment.IsErrBadRequest(err):
		return status(http.StatusBadRequest, msgInvalid, "bad_request")
	default:
		return status(http.StatusPaymentRequired, "Betalningen kunde inte genomföras.", "payment_failed")
	}
}

func mapAlertError(err error) APIStatus {
	switch {
	case alert.IsErrBadRequest(err):
		return status(http.StatusBadRequest, msgInvalid, "bad_request")
	case alert.IsErrLimitReached(err):
		return status(http.StatusConflict, "Du kan ha högst 10 aktiva bevakningar.", "limit_reached")
	case alert.IsErrUnauthorized(err):
		return status(http.StatusForbidden, msgForbidden, "forbidden")
	case alert.IsErrNotFound(err):
		return status(http.StatusNotFound, "Bevakningen hittades inte.", "not_found")
	default:
		return status(http.StatusInternalServerError, msgInternal, "internal")
	}
}

func mapUserError(err error) APIStatus {
	switch {
	case user.IsErrBadRequest(err), notify.IsErrBadRequest(err):
		return status(http.StatusBadRequest, msgInvalid, "bad_request")
	case user.IsErrNotFound(err):
		return status(http.StatusNotFound, "Profilen hittades inte.", "not_found")
	default:
		return status(http.StatusInternalServerError, msgInternal, "internal")
	}
}

func mapUploadError(err error) APIStatus {
	if errors.Is(err, uploads.ErrDisabled) {
		return status(http.StatusServiceUnavailable, "Uppladdning är inte aktiverad.", "uploads_disabled")
	}
	return mapBookingError(err)
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vagvanner/backend/internal/domain/booking"
)

func (a *api) listReports(w http.ResponseWriter, r *http.Request) {
	reps, err := a.Bookings.ListReports(r.Context(), caller(r), r.URL.Query().Get("status"))
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"reports": reps})
}

func (a *api) resolveReport(w http.ResponseWriter, r *http.Request) {
	var in booking.ResolveInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	rep, err := a.Bookings.ResolveReport(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, rep)
}

func (a *api) captureBooking(w http.ResponseWriter, r *http.Request) {
	b, err := a.Bookings.Capture(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

func (a *api) voidBooking(w http.ResponseWriter, r *http.Request) {
	b, err := a.Bookings.Void(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

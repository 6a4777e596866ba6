package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vagvanner/backend/internal/domain/booking"
	"vagvanner/backend/internal/uploads"
)

func (a *api) writeCreated(w http.ResponseWriter, res *booking.CreateResult) {
	code := http.StatusCreated
	if !res.Created {
		code = http.StatusOK
	}
	WriteJSON(w, code, res)
}

func (a *api) requestSeat(w http.ResponseWriter, r *http.Request) {
	var in booking.SeatRequestInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	res, err := a.Bookings.RequestSeat(r.Context(), caller(r), in)
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	a.writeCreated(w, res)
}

func (a *api) startContactUnlock(w http.ResponseWriter, r *http.Request) {
	var in booking.ContactRequestInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	res, err := a.Bookings.StartContactUnlock(r.Context(), caller(r), in)
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	a.writeCreated(w, res)
}

func (a *api) unlockDirect(w http.ResponseWriter, r *http.Request) {
	var in booking.DirectInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	res, err := a.Bookings.UnlockDirect(r.Context(), caller(r), in)
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	a.writeCreated(w, res)
}

func (a *api) myBookings(w http.ResponseWriter, r *http.Request) {
	vs, err := a.Bookings.ListMine(r.Context(), caller(r))
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"bookings": vs})
}

func (a *api) getBooking(w http.ResponseWriter, r *http.Request) {
	v, err := a.Bookings.Get(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

func (a *api) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := a.Bookings.CreatePaymentIntent(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusCreated, intent)
}

func (a *api) unlockWithPayment(w http.ResponseWriter, r *http.Request) {
	var in booking.UnlockInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	v, err := a.Bookings.UnlockWithPayment(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

func (a *api) cancelBooking(w http.ResponseWriter, r *http.Request) {
	b, err := a.Bookings.Cancel(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

func (a *api) sendMessage(w http.ResponseWriter, r *http.Request) {
	var in booking.MessageInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	m, err := a.Bookings.SendMessage(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusCreated, m)
}

func (a *api) markBookingRead(w http.ResponseWriter, r *http.Request) {
	n, err := a.Bookings.MarkRead(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"marked": n})
}

func (a *api) reportBooking(w http.ResponseWriter, r *http.Request) {
	var in booking.ReportInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	rep, err := a.Bookings.Report(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	WriteJSON(w, http.StatusCreated, rep)
}

type attachmentReq struct {
	ContentType string `json:"contentType"`
}

func (a *api) reportAttachment(w http.ResponseWriter, r *http.Request) {
	if a.Uploads == nil {
		failWith(w, a.Log, uploads.ErrDisabled, mapUploadError)
		return
	}
	var req attachmentReq
	if err := readJSON(w, r, &req, false); err != nil {
		badJSON(w)
		return
	}
	path, err := a.Bookings.AttachmentPath(r.Context(), caller(r), chi.URLParam(r, "id"), req.ContentType)
	if err != nil {
		failWith(w, a.Log, err, mapBookingError)
		return
	}
	u, err := a.Uploads.PutURL(r.Context(), path, req.ContentType, uploads.DefaultTTL)
	if err != nil {
		failWith(w, a.Log, err, mapUploadError)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vagvanner/backend/internal/domain/alert"
)

func (a *api) createAlert(w http.ResponseWriter, r *http.Request) {
	var in alert.CreateInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	al, err := a.Alerts.Create(r.Context(), caller(r), in)
	if err != nil {
		failWith(w, a.Log, err, mapAlertError)
		return
	}
	WriteJSON(w, http.StatusCreated, al)
}

func (a *api) myAlerts(w http.ResponseWriter, r *http.Request) {
	as, err := a.Alerts.ListMine(r.Context(), caller(r))
	if err != nil {
		failWith(w, a.Log, err, mapAlertError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"alerts": as})
}

func (a *api) deactivateAlert(w http.ResponseWriter, r *http.Request) {
	al, err := a.Alerts.Deactivate(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, a.Log, err, mapAlertError)
		return
	}
	WriteJSON(w, http.StatusOK, al)
}

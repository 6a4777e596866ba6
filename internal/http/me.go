package http

import (
	"net/http"
	"strings"

	"vagvanner/backend/internal/domain/user"
	"vagvanner/backend/internal/notify"
)

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	cu := caller(r)
	if err := a.Profiles.UpsertMinimal(r.Context(), cu); err != nil {
		a.Log.WithError(err).WithField("uid", cu.UID).Warn("profile upsert failed")
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"uid":     cu.UID,
		"email":   cu.Email,
		"name":    cu.Name,
		"isAdmin": cu.IsAdmin(),
	})
}

func (a *api) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := a.Profiles.Get(r.Context(), caller(r).UID)
	if err != nil {
		failWith(w, a.Log, err, mapUserError)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (a *api) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in user.UpdateProfileInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	p, err := a.Profiles.UpdateProfile(r.Context(), caller(r).UID, in)
	if err != nil {
		failWith(w, a.Log, err, mapUserError)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (a *api) listNotifications(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"
	res, err := a.Inbox.List(r.Context(), caller(r).UID, unread, queryInt(r, "limit", 50))
	if err != nil {
		failWith(w, a.Log, err, mapUserError)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (a *api) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var in notify.MarkReadInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	n, err := a.Inbox.MarkRead(r.Context(), caller(r).UID, in)
	if err != nil {
		failWith(w, a.Log, err, mapUserError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"marked": n})
}

type tokenReq struct {
	Token string `json:"token"`
}

func (a *api) registerToken(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := readJSON(w, r, &req, false); err != nil {
		badJSON(w)
		return
	}
	if err := a.Profiles.AddToken(r.Context(), caller(r).UID, strings.TrimSpace(req.Token)); err != nil {
		failWith(w, a.Log, err, mapUserError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *api) removeToken(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := readJSON(w, r, &req, false); err != nil {
		badJSON(w)
		return
	}
	if err := a.Profiles.RemoveTokens(r.Context(), caller(r).UID, strings.TrimSpace(req.Token)); err != nil {
		failWith(w, a.Log, err, mapUserError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

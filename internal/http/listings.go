package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vagvanner/backend/internal/domain/listing"
	"vagvanner/backend/internal/domain/user"
)

func (a *api) discoverListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := listing.DiscoverInput{
		Role:     listing.Role(q.Get("role")),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Date:     q.Get("date"),
		CostMode: listing.CostMode(q.Get("costMode")),
		MinSeats: queryInt(r, "minSeats", 0),
		Sort:     q.Get("sort"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	}
	res, err := a.Listings.Discover(r.Context(), in)
	if err != nil {
		failWith(w, a.Log, err, mapListingError)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (a *api) submitListing(w http.ResponseWriter, r *http.Request) {
	var in listing.SubmitInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	l, err := a.Listings.Submit(r.Context(), caller(r), in)
	if err != nil {
		failWith(w, a.Log, err, mapListingError)
		return
	}
	WriteJSON(w, http.StatusCreated, l)
}

func (a *api) myListings(w http.ResponseWriter, r *http.Request) {
	ls, err := a.Listings.ListMine(r.Context(), caller(r))
	if err != nil {
		failWith(w, a.Log, err, mapListingError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"listings": ls})
}

func (a *api) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := a.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, a.Log, err, mapListingError)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (a *api) updateListing(w http.ResponseWriter, r *http.Request) {
	var in listing.SubmitInput
	if err := readJSON(w, r, &in, false); err != nil {
		badJSON(w)
		return
	}
	l, err := a.Listings.Update(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		failWith(w, a.Log, err, mapListingError)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

type listingLifecycle func(ctx context.Context, cu user.CurrentUser, id string) (*listing.Listing, error)

func (a *api) lifecycle(fn listingLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := fn(r.Context(), caller(r), chi.URLParam(r, "id"))
		if err != nil {
			failWith(w, a.Log, err, mapListingError)
			return
		}
		WriteJSON(w, http.StatusOK, l)
	}
}

func (a *api) cancelListing(w http.ResponseWriter, r *http.Request) {
	a.lifecycle(a.Listings.Cancel)(w, r)
}

func (a *api) deleteListing(w http.ResponseWriter, r *http.Request) {
	a.lifecycle(a.Listings.Delete)(w, r)
}

func (a *api) archiveListing(w http.ResponseWriter, r *http.Request) {
	a.lifecycle(a.Listings.Archive)(w, r)
}

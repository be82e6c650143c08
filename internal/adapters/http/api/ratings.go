package api

import (
	"net/http"
)

// RatingsHandler serves per-user reads.
type RatingsHandler struct {
	deps Dependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps Dependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// HandleGetRating handles GET /ratings/{user_id}.
func (h *RatingsHandler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rating"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := pathID(r.URL.Path, "/ratings/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	view, err := h.deps.Record(r.Context(), id)
	if err != nil {
		writeOpError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleGetCompetition handles GET /competition/{user_id}.
func (h *RatingsHandler) HandleGetCompetition(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_competition"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := pathID(r.URL.Path, "/competition/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	comp, err := h.deps.Competition(r.Context(), id)
	if err != nil {
		writeOpError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/repentdaily/rating/internal/domain/model"
	"github.com/repentdaily/rating/internal/domain/rating"
)

const maxCompletionBody = 64 << 10

// completionRequest mirrors the OpenAPI schema for POST /completions.
type completionRequest struct {
	EventID     string `json:"event_id"`
	UserID      string `json:"user_id"`
	Kind        string `json:"kind"`
	Completed   *bool  `json:"completed"`
	HabitStreak int    `json:"habit_streak"`
	TS          string `json:"ts"`
}

func (c completionRequest) validate() error {
	switch {
	case strings.TrimSpace(c.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(c.Kind) == "":
		return errors.New("missing kind")
	case c.Completed == nil:
		return errors.New("missing completed")
	case c.HabitStreak < 0:
		return errors.New("habit_streak must not be negative")
	}
	if c.TS != "" {
		if _, err := time.Parse(time.RFC3339, c.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

func (c completionRequest) event() model.CompletionEvent {
	e := model.CompletionEvent{
		EventID:     strings.TrimSpace(c.EventID),
		UserID:      strings.TrimSpace(c.UserID),
		Kind:        rating.Kind(c.Kind),
		Completed:   *c.Completed,
		HabitStreak: c.HabitStreak,
	}
	if c.TS != "" {
		e.TS, _ = time.Parse(time.RFC3339, c.TS)
	}
	return e
}

// CompletionsHandler handles completion submissions.
type CompletionsHandler struct {
	deps Dependencies
}

// NewCompletionsHandler creates a new completions handler.
func NewCompletionsHandler(deps Dependencies) *CompletionsHandler {
	return &CompletionsHandler{deps: deps}
}

// HandlePostCompletion handles POST /completions. New completions are
// acknowledged with 202; replays of a known event_id with 200.
func (h *CompletionsHandler) HandlePostCompletion(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_completion"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req completionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCompletionBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.Submit(r.Context(), req.event())
	if err != nil {
		writeOpError(w, op, err)
		return
	}
	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", EventID: receipt.EventID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: receipt.EventID})
}

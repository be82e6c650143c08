// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/repentdaily/rating/internal/adapters/repository"
	service "github.com/repentdaily/rating/internal/app"
	"github.com/repentdaily/rating/internal/domain/model"
	"github.com/repentdaily/rating/internal/domain/rating"
	"github.com/repentdaily/rating/internal/domain/types"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	// Submit accepts a completion for asynchronous scoring.
	Submit(ctx context.Context, e model.CompletionEvent) (service.Receipt, error)

	// Read operations expose ratings and leaderboard data.
	Leaderboard(ctx context.Context, n int) ([]Entry, error)
	Record(ctx context.Context, userID string) (types.RatingView, error)
	Competition(ctx context.Context, userID string) (types.Competition, error)
	Tiers() []rating.Tier
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	completionsHandler *CompletionsHandler
	leaderboardHandler *LeaderboardHandler
	ratingsHandler     *RatingsHandler
	tiersHandler       *TiersHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// leaderboard page size.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		completionsHandler: NewCompletionsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		ratingsHandler:     NewRatingsHandler(deps),
		tiersHandler:       NewTiersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/completions", MetricsMiddleware(s.completionsHandler.HandlePostCompletion, "completions"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/ratings/", MetricsMiddleware(s.ratingsHandler.HandleGetRating, "ratings"))
	mux.HandleFunc("/competition/", MetricsMiddleware(s.ratingsHandler.HandleGetCompetition, "competition"))
	mux.HandleFunc("/tiers", MetricsMiddleware(s.tiersHandler.HandleGetTiers, "tiers"))
}

type ackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps upstream errors to API kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidEvent), errors.Is(err, repository.ErrInvalidLimit):
		return ErrBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, service.ErrBackpressure):
		return ErrBackpressure
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, repository.ErrClosed):
		return ErrUnavailable
	default:
		return nil
	}
}

// writeOpError writes err with the status its kind implies.
func writeOpError(w http.ResponseWriter, op string, err error) {
	kind := classify(err)
	if kind == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	err = WrapKind(op, kind, err)
	switch kind {
	case ErrBadRequest:
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case ErrNotFound:
		writeError(w, http.StatusNotFound, "not_found", err)
	case ErrBackpressure:
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	}
}

// pathID returns the single path segment after prefix, or "" when the
// remainder is empty or nested.
func pathID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	if id == path || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

// Package handler exposes the reputation endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"knowledgehub/internal/reputation/models"
	redisstore "knowledgehub/internal/reputation/store/redis"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	"knowledgehub/pkg/platform/httputil"
	"knowledgehub/pkg/requestcontext"
)

// Engine defines the reputation reads the handler depends on.
type Engine interface {
	Reputation(ctx context.Context, userID id.UserID) (*models.UserReputation, error)
}

// Leaderboard answers top-N ranking queries. Optional: without a ranking
// cache the endpoint reports unavailable.
type Leaderboard interface {
	Top(ctx context.Context, limit int) ([]redisstore.RankedUser, error)
}

// Handler exposes the reputation API.
type Handler struct {
	engine      Engine
	leaderboard Leaderboard
	logger      *slog.Logger
}

// New constructs a reputation handler. leaderboard may be nil.
func New(engine Engine, leaderboard Leaderboard, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, leaderboard: leaderboard, logger: logger}
}

// Register mounts reputation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reputation/me", h.HandleMe)
	r.Get("/reputation/leaderboard", h.HandleLeaderboard)
}

// HandleMe handles GET /reputation/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rep, err := h.engine.Reputation(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load reputation",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reputationResponse{
		UserID: rep.UserID,
		Score:  rep.Score,
		Badges: rep.BadgeList(),
		Counters: countersResponse{
			Uploads:   rep.Counters.Uploads,
			Approvals: rep.Counters.Approvals,
		},
	})
}

// HandleLeaderboard handles GET /reputation/leaderboard?limit=N.
func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.leaderboard == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "leaderboard not configured"))
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer between 1 and 100"))
			return
		}
		limit = parsed
	}

	ranked, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "leaderboard unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, leaderboardResponse{Entries: ranked})
}

type reputationResponse struct {
	UserID   id.UserID        `json:"user_id"`
	Score    int              `json:"score"`
	Badges   []string         `json:"badges"`
	Counters countersResponse `json:"counters"`
}

type countersResponse struct {
	Uploads   int `json:"uploads"`
	Approvals int `json:"approvals"`
}

type leaderboardResponse struct {
	Entries []redisstore.RankedUser `json:"entries"`
}

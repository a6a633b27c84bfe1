// Package reputation derives score deltas and badge unlocks from user
// actions. Delta values and badge thresholds are configuration; the engine
// carries no hard-coded numbers.
package reputation

import (
	"context"
	"fmt"
	"log/slog"

	"knowledgehub/internal/platform/config"
	"knowledgehub/internal/reputation/metrics"
	"knowledgehub/internal/reputation/models"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
)

// Event names one reputation-relevant action.
type Event string

const (
	EventUpload           Event = "upload"
	EventApprovalReceived Event = "approval_received"
	EventRatingReceived   Event = "rating_received"
	EventCommentReceived  Event = "comment_received"
	EventLikeReceived     Event = "like_received"

	// EventLikeRevoked reverses a like's delta so an unlike/re-like cycle
	// nets the same score as a single like.
	EventLikeRevoked Event = "like_revoked"
)

// Store persists reputation state. Adjust must be atomic per user.
type Store interface {
	Adjust(ctx context.Context, userID id.UserID, delta int, counters models.Counters) (*models.UserReputation, error)
	GrantBadge(ctx context.Context, userID id.UserID, badge string) (bool, error)
	Find(ctx context.Context, userID id.UserID) (*models.UserReputation, error)
}

// Leaderboard mirrors scores into a ranking cache. Optional; mirror failures
// are logged and never fail the award.
type Leaderboard interface {
	Record(ctx context.Context, userID id.UserID, score int) error
}

// Award is the result of applying one event.
type Award struct {
	Event          Event    `json:"event"`
	ScoreDelta     int      `json:"score_delta"`
	NewScore       int      `json:"new_score"`
	BadgesUnlocked []string `json:"badges_unlocked,omitempty"`
}

// Engine applies the configured delta table and badge rules.
type Engine struct {
	cfg         config.Reputation
	store       Store
	leaderboard Leaderboard
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithLeaderboard(lb Leaderboard) Option {
	return func(e *Engine) { e.leaderboard = lb }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New constructs an Engine.
func New(cfg config.Reputation, store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("reputation store is required")
	}
	e := &Engine{cfg: cfg, store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) delta(event Event) (int, models.Counters, error) {
	switch event {
	case EventUpload:
		return e.cfg.UploadDelta, models.Counters{Uploads: 1}, nil
	case EventApprovalReceived:
		return e.cfg.ApprovalDelta, models.Counters{Approvals: 1}, nil
	case EventRatingReceived:
		return e.cfg.RatingDelta, models.Counters{}, nil
	case EventCommentReceived:
		return e.cfg.CommentDelta, models.Counters{}, nil
	case EventLikeReceived:
		return e.cfg.LikeDelta, models.Counters{}, nil
	case EventLikeRevoked:
		return -e.cfg.LikeDelta, models.Counters{}, nil
	default:
		return 0, models.Counters{}, dErrors.New(dErrors.CodeInvalidInput, "unknown reputation event "+string(event))
	}
}

// Award applies one event to the user's reputation and evaluates badge rules
// against the updated counters. Idempotence for per-rater and per-liker
// semantics is the caller's contract: the document service only emits
// RatingReceived for a user's first rating and pairs LikeReceived with
// LikeRevoked on toggle.
func (e *Engine) Award(ctx context.Context, userID id.UserID, event Event) (*Award, error) {
	delta, counters, err := e.delta(event)
	if err != nil {
		return nil, err
	}

	rep, err := e.store.Adjust(ctx, userID, delta, counters)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to adjust reputation")
	}
	if e.metrics != nil {
		e.metrics.AwardsTotal.WithLabelValues(string(event)).Inc()
		if delta < 0 && rep.Score == 0 {
			e.metrics.ScoreClamped.Inc()
		}
	}

	badges, err := e.unlockBadges(ctx, rep)
	if err != nil {
		return nil, err
	}

	if e.leaderboard != nil {
		if err := e.leaderboard.Record(ctx, userID, rep.Score); err != nil && e.logger != nil {
			e.logger.WarnContext(ctx, "leaderboard mirror failed",
				"user_id", userID.String(),
				"error", err,
			)
		}
	}

	return &Award{
		Event:          event,
		ScoreDelta:     delta,
		NewScore:       rep.Score,
		BadgesUnlocked: badges,
	}, nil
}

// unlockBadges grants every configured badge whose counter has reached its
// threshold. GrantBadge is idempotent, so re-evaluating after every mutation
// never duplicates a grant.
func (e *Engine) unlockBadges(ctx context.Context, rep *models.UserReputation) ([]string, error) {
	var unlocked []string
	for _, rule := range e.cfg.Badges {
		if e.counterValue(rep, rule.Counter) < rule.Threshold {
			continue
		}
		granted, err := e.store.GrantBadge(ctx, rep.UserID, rule.Badge)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to grant badge")
		}
		if granted {
			unlocked = append(unlocked, rule.Badge)
			if e.metrics != nil {
				e.metrics.BadgesTotal.Inc()
			}
		}
	}
	return unlocked, nil
}

func (e *Engine) counterValue(rep *models.UserReputation, counter string) int {
	switch counter {
	case "uploads":
		return rep.Counters.Uploads
	case "approvals":
		return rep.Counters.Approvals
	case "score":
		return rep.Score
	default:
		return 0
	}
}

// Reputation returns a user's current reputation snapshot.
func (e *Engine) Reputation(ctx context.Context, userID id.UserID) (*models.UserReputation, error) {
	rep, err := e.store.Find(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load reputation")
	}
	return rep, nil
}

// Package redis mirrors reputation scores into a Redis sorted set so the
// leaderboard endpoint can answer top-N queries without scanning the primary
// store.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	platformredis "knowledgehub/internal/platform/redis"
	id "knowledgehub/pkg/domain"
)

const leaderboardKey = "reputation:leaderboard"

// RankedUser is one leaderboard row.
type RankedUser struct {
	UserID id.UserID `json:"user_id"`
	Score  int       `json:"score"`
	Rank   int       `json:"rank"`
}

// Leaderboard keeps the ranking sorted set current.
type Leaderboard struct {
	client *platformredis.Client
}

// New returns a Leaderboard backed by the given client.
func New(client *platformredis.Client) (*Leaderboard, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Leaderboard{client: client}, nil
}

// Record sets the user's absolute score. ZAdd is set-not-increment: the
// primary store is the source of truth and this mirror converges on its
// value even after missed updates.
func (l *Leaderboard) Record(ctx context.Context, userID id.UserID, score int) error {
	return l.client.ZAdd(ctx, leaderboardKey, goredis.Z{
		Score:  float64(score),
		Member: userID.String(),
	}).Err()
}

// Top returns the highest-scored users, best first.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]RankedUser, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard range: %w", err)
	}

	ranked := make([]RankedUser, 0, len(entries))
	for i, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		userID, err := id.ParseUserID(member)
		if err != nil {
			// A malformed member means a write from an incompatible
			// version. Skip it rather than failing the whole page.
			continue
		}
		ranked = append(ranked, RankedUser{
			UserID: userID,
			Score:  int(entry.Score),
			Rank:   i + 1,
		})
	}
	return ranked, nil
}

// Remove drops a user from the leaderboard.
func (l *Leaderboard) Remove(ctx context.Context, userID id.UserID) error {
	return l.client.ZRem(ctx, leaderboardKey, userID.String()).Err()
}

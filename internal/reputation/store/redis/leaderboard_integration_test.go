//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	platformredis "knowledgehub/internal/platform/redis"
	redisstore "knowledgehub/internal/reputation/store/redis"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/testutil/containers"
)

type LeaderboardSuite struct {
	suite.Suite
	redis       *containers.RedisContainer
	leaderboard *redisstore.Leaderboard
}

func TestLeaderboardSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LeaderboardSuite))
}

func (s *LeaderboardSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	lb, err := redisstore.New(&platformredis.Client{Client: s.redis.Client})
	s.Require().NoError(err)
	s.leaderboard = lb
}

func (s *LeaderboardSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *LeaderboardSuite) TestTopOrdersByScore() {
	ctx := context.Background()
	first := id.NewUserID()
	second := id.NewUserID()
	third := id.NewUserID()

	s.Require().NoError(s.leaderboard.Record(ctx, first, 50))
	s.Require().NoError(s.leaderboard.Record(ctx, second, 80))
	s.Require().NoError(s.leaderboard.Record(ctx, third, 20))

	ranked, err := s.leaderboard.Top(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(ranked, 3)
	s.Equal(second, ranked[0].UserID)
	s.Equal(80, ranked[0].Score)
	s.Equal(1, ranked[0].Rank)
	s.Equal(first, ranked[1].UserID)
	s.Equal(third, ranked[2].UserID)
}

func (s *LeaderboardSuite) TestRecordConvergesToLatestScore() {
	ctx := context.Background()
	user := id.NewUserID()

	s.Require().NoError(s.leaderboard.Record(ctx, user, 10))
	s.Require().NoError(s.leaderboard.Record(ctx, user, 7))

	ranked, err := s.leaderboard.Top(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(ranked, 1)
	s.Equal(7, ranked[0].Score)
}

func (s *LeaderboardSuite) TestTopRespectsLimit() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.leaderboard.Record(ctx, id.NewUserID(), i*10))
	}

	ranked, err := s.leaderboard.Top(ctx, 2)
	s.Require().NoError(err)
	s.Len(ranked, 2)
}

func (s *LeaderboardSuite) TestRemove() {
	ctx := context.Background()
	user := id.NewUserID()
	s.Require().NoError(s.leaderboard.Record(ctx, user, 42))
	s.Require().NoError(s.leaderboard.Remove(ctx, user))

	ranked, err := s.leaderboard.Top(ctx, 10)
	s.Require().NoError(err)
	s.Empty(ranked)
}

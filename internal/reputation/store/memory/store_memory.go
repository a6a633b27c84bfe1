package memory

import (
	"context"
	"sync"

	"knowledgehub/internal/reputation/models"
	id "knowledgehub/pkg/domain"
)

// InMemoryStore keeps reputation records keyed by user. Adjust and GrantBadge
// are atomic under the store lock, which is all the commutative per-user
// mutations need; no document-wide coordination happens here.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.UserReputation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[id.UserID]*models.UserReputation)}
}

func (s *InMemoryStore) get(userID id.UserID) *models.UserReputation {
	rep, ok := s.users[userID]
	if !ok {
		rep = models.NewUserReputation(userID)
		s.users[userID] = rep
	}
	return rep
}

// Adjust applies a score delta and counter increments atomically, clamping
// the score at zero, and returns a snapshot of the result.
func (s *InMemoryStore) Adjust(_ context.Context, userID id.UserID, delta int, counters models.Counters) (*models.UserReputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep := s.get(userID)
	rep.Score += delta
	if rep.Score < 0 {
		rep.Score = 0
	}
	rep.Counters.Uploads += counters.Uploads
	rep.Counters.Approvals += counters.Approvals
	return rep.Clone(), nil
}

// GrantBadge adds the badge if absent. Returns false when the badge was
// already granted, so callers never double-announce an unlock.
func (s *InMemoryStore) GrantBadge(_ context.Context, userID id.UserID, badge string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep := s.get(userID)
	if rep.Badges[badge] {
		return false, nil
	}
	rep.Badges[badge] = true
	return true, nil
}

// Find returns a snapshot of the user's reputation, zero record when unseen.
func (s *InMemoryStore) Find(_ context.Context, userID id.UserID) (*models.UserReputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rep, ok := s.users[userID]; ok {
		return rep.Clone(), nil
	}
	return models.NewUserReputation(userID), nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"knowledgehub/internal/audit"
	id "knowledgehub/pkg/domain"
)

// InMemoryStore keeps audit entries per target document. Appends take a
// monotonic sequence under the lock so ties on timestamp keep arrival order.
type InMemoryStore struct {
	mu      sync.RWMutex
	seq     uint64
	entries map[id.DocumentID][]audit.Entry
	byActor map[id.UserID][]audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[id.DocumentID][]audit.Entry),
		byActor: make(map[id.UserID][]audit.Entry),
	}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[id.DocumentID][]audit.Entry)
	s.byActor = make(map[id.UserID][]audit.Entry)
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	entry.Sequence = s.seq
	s.entries[entry.TargetID] = append(s.entries[entry.TargetID], entry)
	if !entry.ActorID.IsNil() {
		s.byActor[entry.ActorID] = append(s.byActor[entry.ActorID], entry)
	}
	return nil
}

// ListByTarget returns one document's history ordered by timestamp, ties
// broken by append sequence.
func (s *InMemoryStore) ListByTarget(_ context.Context, targetID id.DocumentID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]audit.Entry{}, s.entries[targetID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actorID id.UserID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.byActor[actorID]...), nil
}

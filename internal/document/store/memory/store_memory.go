// Package memory provides an in-memory document store with optimistic
// concurrency control, suitable for tests and single-node deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"knowledgehub/internal/document/models"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in a mutex-protected map. Reads return deep
// copies; writes compare-and-swap on the document revision so two concurrent
// read-modify-write cycles cannot silently overwrite each other.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]*models.Document
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[id.DocumentID]*models.Document),
	}
}

// Create stores a new document. The stored copy starts at revision 1.
func (s *InMemoryStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := doc.Clone()
	stored.Revision = 1
	s.documents[doc.ID] = stored
	doc.Revision = stored.Revision
	return nil
}

// FindByID returns a deep copy of the document, revision included.
func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return doc.Clone(), nil
}

// Update replaces the stored document if the caller's revision still matches
// the stored one. On success the revision advances and the caller's copy is
// updated to match; on a stale revision the store is untouched and
// sentinel.ErrConflict is returned so the caller can re-read and retry.
func (s *InMemoryStore) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.documents[doc.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Revision != doc.Revision {
		return sentinel.ErrConflict
	}
	next := doc.Clone()
	next.Revision = stored.Revision + 1
	s.documents[doc.ID] = next
	doc.Revision = next.Revision
	return nil
}

// Delete removes a document. The service uses this to take back a create
// whose audit append failed.
func (s *InMemoryStore) Delete(_ context.Context, docID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[docID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.documents, docID)
	return nil
}

// List returns deep copies of every document ordered by creation time, oldest
// first, with ID as the tiebreaker for stable output.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// ListByOwner returns deep copies of the owner's documents, oldest first.
func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Document
	for _, doc := range s.documents {
		if doc.OwnerID == ownerID {
			out = append(out, doc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Clear removes all documents. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[id.DocumentID]*models.Document)
}

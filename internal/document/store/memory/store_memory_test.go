package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"knowledgehub/internal/document/models"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/platform/sentinel"
)

type DocumentStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *DocumentStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreSuite))
}

func (s *DocumentStoreSuite) newDocument(title string) *models.Document {
	doc, err := models.New(id.NewDocumentID(), id.NewUserID(), title, "desc", "finance", "emea", nil, time.Now())
	s.Require().NoError(err)
	return doc
}

func (s *DocumentStoreSuite) TestCreateAndFind() {
	doc := s.newDocument("Q3 Financial Report")
	s.Require().NoError(s.store.Create(s.ctx, doc))
	s.Equal(uint64(1), doc.Revision)

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.Title, found.Title)
	s.Equal(models.StatusPending, found.Status)
	s.Equal(uint64(1), found.Revision)
}

func (s *DocumentStoreSuite) TestCreateDuplicateID() {
	doc := s.newDocument("first")
	s.Require().NoError(s.store.Create(s.ctx, doc))

	again := doc.Clone()
	s.Require().ErrorIs(s.store.Create(s.ctx, again), sentinel.ErrConflict)
}

func (s *DocumentStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewDocumentID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DocumentStoreSuite) TestUpdateAdvancesRevision() {
	doc := s.newDocument("doc")
	s.Require().NoError(s.store.Create(s.ctx, doc))

	doc.Description = "updated"
	s.Require().NoError(s.store.Update(s.ctx, doc))
	s.Equal(uint64(2), doc.Revision)

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal("updated", found.Description)
}

func (s *DocumentStoreSuite) TestStaleUpdateConflicts() {
	doc := s.newDocument("contested")
	s.Require().NoError(s.store.Create(s.ctx, doc))

	first, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	second, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)

	first.Description = "writer one"
	s.Require().NoError(s.store.Update(s.ctx, first))

	second.Description = "writer two"
	s.Require().ErrorIs(s.store.Update(s.ctx, second), sentinel.ErrConflict)

	// The losing write must not have clobbered anything.
	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal("writer one", found.Description)
}

func (s *DocumentStoreSuite) TestConflictedWriterRetriesAfterReread() {
	doc := s.newDocument("retry")
	s.Require().NoError(s.store.Create(s.ctx, doc))

	stale, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)

	winner, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	_, err = winner.SetRating(id.NewUserID(), 5, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Update(s.ctx, winner))

	s.Require().ErrorIs(s.store.Update(s.ctx, stale), sentinel.ErrConflict)

	fresh, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	fresh.ToggleLike(stale.OwnerID, time.Now())
	s.Require().NoError(s.store.Update(s.ctx, fresh))

	final, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Len(final.Ratings, 1)
	s.Len(final.Likes, 1)
}

func (s *DocumentStoreSuite) TestVersionNumbering() {
	doc := s.newDocument("versioned")
	uploader := doc.OwnerID
	s.Require().NoError(s.store.Create(s.ctx, doc))

	for i := 1; i <= 3; i++ {
		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		_, err = found.AppendVersion("s3://bucket/v", "", uploader, time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Update(s.ctx, found))
	}

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(found.Versions, 3)
	for i, v := range found.Versions {
		s.Equal(i+1, v.VersionNumber)
	}
	s.Equal(3, found.CurrentVersion())
}

func (s *DocumentStoreSuite) TestReadsDoNotAliasStoreState() {
	doc := s.newDocument("aliasing")
	s.Require().NoError(s.store.Create(s.ctx, doc))

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	found.Title = "mutated locally"

	again, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal("aliasing", again.Title)
}

func (s *DocumentStoreSuite) TestListOrdersByCreation() {
	base := time.Now()
	for i, title := range []string{"c", "a", "b"} {
		doc, err := models.New(id.NewDocumentID(), id.NewUserID(), title, "", "", "", nil, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(err)
		s.Require().NoError(s.store.Create(s.ctx, doc))
	}

	docs, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(docs, 3)
	s.Equal("c", docs[0].Title)
	s.Equal("a", docs[1].Title)
	s.Equal("b", docs[2].Title)
}

func (s *DocumentStoreSuite) TestListByOwner() {
	owner := id.NewUserID()
	doc, err := models.New(id.NewDocumentID(), owner, "mine", "", "", "", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, doc))
	s.Require().NoError(s.store.Create(s.ctx, s.newDocument("theirs")))

	docs, err := s.store.ListByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal("mine", docs[0].Title)
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"knowledgehub/internal/audit"
	id "knowledgehub/pkg/domain"
)

type AuditStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *AuditStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestAuditStoreSuite(t *testing.T) {
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) entry(target id.DocumentID, action audit.Action, ts time.Time) audit.Entry {
	return audit.Entry{
		Timestamp: ts,
		ActorID:   id.NewUserID(),
		ActorRole: id.RoleConsultant,
		Action:    action,
		TargetID:  target,
	}
}

func (s *AuditStoreSuite) TestAppendAndList() {
	target := id.NewDocumentID()
	now := time.Now()

	s.Require().NoError(s.store.Append(s.ctx, s.entry(target, audit.ActionUpload, now)))
	s.Require().NoError(s.store.Append(s.ctx, s.entry(target, audit.ActionApprove, now.Add(time.Second))))

	entries, err := s.store.ListByTarget(s.ctx, target)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(audit.ActionUpload, entries[0].Action)
	s.Equal(audit.ActionApprove, entries[1].Action)
}

func (s *AuditStoreSuite) TestEqualTimestampsKeepArrivalOrder() {
	target := id.NewDocumentID()
	ts := time.Now()

	for _, action := range []audit.Action{audit.ActionComment, audit.ActionLike, audit.ActionRate} {
		s.Require().NoError(s.store.Append(s.ctx, s.entry(target, action, ts)))
	}

	entries, err := s.store.ListByTarget(s.ctx, target)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(audit.ActionComment, entries[0].Action)
	s.Equal(audit.ActionLike, entries[1].Action)
	s.Equal(audit.ActionRate, entries[2].Action)
	s.Less(entries[0].Sequence, entries[1].Sequence)
	s.Less(entries[1].Sequence, entries[2].Sequence)
}

func (s *AuditStoreSuite) TestTargetsAreIsolated() {
	a := id.NewDocumentID()
	b := id.NewDocumentID()
	s.Require().NoError(s.store.Append(s.ctx, s.entry(a, audit.ActionUpload, time.Now())))

	entries, err := s.store.ListByTarget(s.ctx, b)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *AuditStoreSuite) TestListByActor() {
	actor := id.NewUserID()
	entry := s.entry(id.NewDocumentID(), audit.ActionUpload, time.Now())
	entry.ActorID = actor
	s.Require().NoError(s.store.Append(s.ctx, entry))

	entries, err := s.store.ListByActor(s.ctx, actor)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(actor, entries[0].ActorID)
}

package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgehub/internal/document/models"
	"knowledgehub/internal/rbac"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
)

var reviewerRoles = []id.Role{
	id.RoleSeniorConsultant,
	id.RoleProjectManager,
	id.RoleKnowledgeChampion,
	id.RoleGovernanceCouncil,
	id.RoleITInfrastructure,
	id.RoleAdmin,
}

func newMachine() *Machine {
	return New(rbac.New(reviewerRoles))
}

func newDoc(t *testing.T, status models.Status) *models.Document {
	t.Helper()
	doc, err := models.New(id.NewDocumentID(), id.NewUserID(), "Test Document", "", "tech", "emea", nil, time.Now())
	require.NoError(t, err)
	doc.Status = status
	return doc
}

func TestTransition_Approve(t *testing.T) {
	m := newMachine()
	doc := newDoc(t, models.StatusPending)
	actor := Actor{ID: id.NewUserID(), Role: id.RoleSeniorConsultant}

	outcome, err := m.Transition(doc, actor, models.StatusApproved, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, doc.Status)
	assert.True(t, outcome.AwardApproval)
	assert.Equal(t, models.StatusPending, outcome.From)
}

func TestTransition_NonReviewerForbidden(t *testing.T) {
	m := newMachine()
	doc := newDoc(t, models.StatusPending)
	actor := Actor{ID: id.NewUserID(), Role: id.RoleConsultant}

	_, err := m.Transition(doc, actor, models.StatusApproved, "", time.Now())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	assert.Equal(t, models.StatusPending, doc.Status, "failed transition must not change state")
}

func TestTransition_RejectRequiresReason(t *testing.T) {
	m := newMachine()
	actor := Actor{ID: id.NewUserID(), Role: id.RoleAdmin}

	t.Run("empty reason fails with InvalidTransition", func(t *testing.T) {
		doc := newDoc(t, models.StatusPending)
		_, err := m.Transition(doc, actor, models.StatusRejected, "", time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		assert.Equal(t, models.StatusPending, doc.Status)
		assert.Empty(t, doc.RejectionReason)
	})

	t.Run("reason is recorded on success", func(t *testing.T) {
		doc := newDoc(t, models.StatusPending)
		_, err := m.Transition(doc, actor, models.StatusRejected, "duplicate of existing runbook", time.Now())
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, doc.Status)
		assert.Equal(t, "duplicate of existing runbook", doc.RejectionReason)
	})
}

func TestTransition_RevisionRoundTrip(t *testing.T) {
	m := newMachine()
	reviewer := Actor{ID: id.NewUserID(), Role: id.RoleKnowledgeChampion}
	doc := newDoc(t, models.StatusPending)

	_, err := m.Transition(doc, reviewer, models.StatusDraft, "needs a summary section", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, doc.Status)

	// The owner, a plain consultant, may resubmit.
	owner := Actor{ID: doc.OwnerID, Role: id.RoleConsultant}
	_, err = m.Transition(doc, owner, models.StatusPending, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, doc.Status)
}

func TestTransition_Archive(t *testing.T) {
	m := newMachine()

	t.Run("owner may archive an approved document", func(t *testing.T) {
		doc := newDoc(t, models.StatusApproved)
		owner := Actor{ID: doc.OwnerID, Role: id.RoleNewHire}
		_, err := m.Transition(doc, owner, models.StatusArchived, "", time.Now())
		require.NoError(t, err)
		assert.Equal(t, models.StatusArchived, doc.Status)
	})

	t.Run("reviewer may archive a rejected document", func(t *testing.T) {
		doc := newDoc(t, models.StatusRejected)
		reviewer := Actor{ID: id.NewUserID(), Role: id.RoleGovernanceCouncil}
		_, err := m.Transition(doc, reviewer, models.StatusArchived, "", time.Now())
		require.NoError(t, err)
	})

	t.Run("unrelated consultant may not archive", func(t *testing.T) {
		doc := newDoc(t, models.StatusApproved)
		stranger := Actor{ID: id.NewUserID(), Role: id.RoleConsultant}
		_, err := m.Transition(doc, stranger, models.StatusArchived, "", time.Now())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.Equal(t, models.StatusApproved, doc.Status)
	})
}

// TestTransition_DeniedTable sweeps every disallowed (state, target) pair and
// asserts the document is untouched.
func TestTransition_DeniedTable(t *testing.T) {
	m := newMachine()
	admin := Actor{ID: id.NewUserID(), Role: id.RoleAdmin}

	allowed := map[[2]models.Status]bool{
		{models.StatusPending, models.StatusApproved}:  true,
		{models.StatusPending, models.StatusRejected}:  true,
		{models.StatusPending, models.StatusDraft}:     true,
		{models.StatusDraft, models.StatusPending}:     true,
		{models.StatusApproved, models.StatusArchived}: true,
		{models.StatusRejected, models.StatusArchived}: true,
	}

	statuses := []models.Status{
		models.StatusDraft, models.StatusPending, models.StatusApproved,
		models.StatusRejected, models.StatusArchived,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			if allowed[[2]models.Status{from, to}] || from == to {
				continue
			}
			doc := newDoc(t, from)
			_, err := m.Transition(doc, admin, to, "some reason", time.Now())
			require.Error(t, err, "%s -> %s should be rejected", from, to)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition), "%s -> %s", from, to)
			assert.Equal(t, from, doc.Status)
		}
	}
}

func TestTransition_NothingLeavesArchived(t *testing.T) {
	m := newMachine()
	admin := Actor{ID: id.NewUserID(), Role: id.RoleAdmin}
	for _, to := range []models.Status{models.StatusDraft, models.StatusPending, models.StatusApproved, models.StatusRejected} {
		doc := newDoc(t, models.StatusArchived)
		_, err := m.Transition(doc, admin, to, "reason", time.Now())
		require.Error(t, err)
		assert.Equal(t, models.StatusArchived, doc.Status)
	}
}

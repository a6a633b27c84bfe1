package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "knowledgehub/pkg/domain"
)

var reviewers = []id.Role{
	id.RoleSeniorConsultant,
	id.RoleProjectManager,
	id.RoleKnowledgeChampion,
	id.RoleGovernanceCouncil,
	id.RoleITInfrastructure,
	id.RoleAdmin,
}

func TestIsPermitted(t *testing.T) {
	a := New(reviewers)

	t.Run("everyone may upload and interact", func(t *testing.T) {
		for _, role := range id.AllRoles() {
			assert.True(t, a.IsPermitted(role, ActionUpload), role)
			assert.True(t, a.IsPermitted(role, ActionComment), role)
			assert.True(t, a.IsPermitted(role, ActionLike), role)
		}
	})

	t.Run("only reviewers may review", func(t *testing.T) {
		assert.True(t, a.IsPermitted(id.RoleSeniorConsultant, ActionReview))
		assert.True(t, a.IsPermitted(id.RoleAdmin, ActionReview))
		assert.False(t, a.IsPermitted(id.RoleConsultant, ActionReview))
		assert.False(t, a.IsPermitted(id.RoleNewHire, ActionReview))
	})

	t.Run("rule changes stay with governance leadership", func(t *testing.T) {
		assert.True(t, a.IsPermitted(id.RoleGovernanceCouncil, ActionChangeRules))
		assert.False(t, a.IsPermitted(id.RoleSeniorConsultant, ActionChangeRules))
	})

	t.Run("unknown action is denied", func(t *testing.T) {
		assert.False(t, a.IsPermitted(id.RoleAdmin, Action("document.delete")))
	})

	t.Run("unknown role is denied", func(t *testing.T) {
		assert.False(t, a.IsPermitted(id.Role("intern"), ActionUpload))
	})
}

func TestIsAtLeast(t *testing.T) {
	a := New(reviewers)

	assert.True(t, a.IsAtLeast(id.RoleAdmin, id.RoleNewHire))
	assert.True(t, a.IsAtLeast(id.RoleConsultant, id.RoleConsultant))
	assert.False(t, a.IsAtLeast(id.RoleNewHire, id.RoleConsultant))
	assert.False(t, a.IsAtLeast(id.Role("intern"), id.RoleNewHire))
}

func TestWithOrder(t *testing.T) {
	// A site that ranks KnowledgeChampion above ITInfrastructure can say so
	// in configuration without touching any call site.
	a := New(reviewers, WithOrder([]id.Role{
		id.RoleNewHire,
		id.RoleConsultant,
		id.RoleSeniorConsultant,
		id.RoleProjectManager,
		id.RoleITInfrastructure,
		id.RoleGovernanceCouncil,
		id.RoleKnowledgeChampion,
		id.RoleAdmin,
	}))

	assert.True(t, a.IsAtLeast(id.RoleKnowledgeChampion, id.RoleITInfrastructure))
	assert.False(t, a.IsAtLeast(id.RoleITInfrastructure, id.RoleKnowledgeChampion))
}

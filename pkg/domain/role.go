package domain

import dErrors "knowledgehub/pkg/domain-errors"

// Role is the fixed enumeration of platform roles. The seniority order between
// roles is configuration owned by the rbac package, not a property of the type;
// callers must never compare roles directly.
//
// Usage: construct via ParseRole at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Role string

const (
	RoleNewHire           Role = "new_hire"
	RoleConsultant        Role = "consultant"
	RoleSeniorConsultant  Role = "senior_consultant"
	RoleProjectManager    Role = "project_manager"
	RoleKnowledgeChampion Role = "knowledge_champion"
	RoleGovernanceCouncil Role = "knowledge_governance_council"
	RoleITInfrastructure  Role = "it_infrastructure"
	RoleAdmin             Role = "admin"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleNewHire:           true,
	RoleConsultant:        true,
	RoleSeniorConsultant:  true,
	RoleProjectManager:    true,
	RoleKnowledgeChampion: true,
	RoleGovernanceCouncil: true,
	RoleITInfrastructure:  true,
	RoleAdmin:             true,
}

// AllRoles lists every role in declaration order. Used by rbac to build the
// default seniority ladder.
func AllRoles() []Role {
	return []Role{
		RoleNewHire,
		RoleConsultant,
		RoleSeniorConsultant,
		RoleProjectManager,
		RoleKnowledgeChampion,
		RoleGovernanceCouncil,
		RoleITInfrastructure,
		RoleAdmin,
	}
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

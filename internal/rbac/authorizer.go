// Package rbac owns the role order and permission tables. Every role check in
// the system goes through an Authorizer; no caller compares role strings.
package rbac

import (
	id "knowledgehub/pkg/domain"
)

// Action names a governed capability.
type Action string

const (
	ActionUpload         Action = "document.upload"
	ActionReview         Action = "document.review"
	ActionArchive        Action = "document.archive"
	ActionComment        Action = "document.comment"
	ActionRate           Action = "document.rate"
	ActionLike           Action = "document.like"
	ActionFlag           Action = "governance.flag"
	ActionResolveFlag    Action = "governance.resolve_flag"
	ActionViewAuditTrail Action = "audit.view"
	ActionChangeRules    Action = "governance.rule_change"
)

// Authorizer answers permission questions from one explicit configuration:
// a total order over the fixed role enumeration plus per-action role sets.
type Authorizer struct {
	rank        map[id.Role]int
	permissions map[Action]map[id.Role]bool
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithOrder replaces the default seniority ladder. Roles absent from the
// given order rank below every listed role.
func WithOrder(order []id.Role) Option {
	return func(a *Authorizer) {
		a.rank = buildRank(order)
	}
}

// New builds an Authorizer. reviewerRoles is the configured set of roles that
// may move documents out of Pending; it also gates flag resolution.
func New(reviewerRoles []id.Role, opts ...Option) *Authorizer {
	a := &Authorizer{
		rank:        buildRank(id.AllRoles()),
		permissions: map[Action]map[id.Role]bool{},
	}

	// Every authenticated role may contribute content and interactions.
	everyone := roleSet(id.AllRoles())
	a.permissions[ActionUpload] = everyone
	a.permissions[ActionComment] = everyone
	a.permissions[ActionRate] = everyone
	a.permissions[ActionLike] = everyone
	a.permissions[ActionFlag] = everyone

	reviewers := roleSet(reviewerRoles)
	a.permissions[ActionReview] = reviewers
	a.permissions[ActionArchive] = reviewers
	a.permissions[ActionResolveFlag] = reviewers
	a.permissions[ActionViewAuditTrail] = reviewers

	// Rule changes stay with platform operators and governance leadership.
	a.permissions[ActionChangeRules] = roleSet([]id.Role{
		id.RoleGovernanceCouncil,
		id.RoleITInfrastructure,
		id.RoleAdmin,
	})

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsPermitted reports whether the role may perform the action. Unknown
// actions and unknown roles are denied.
func (a *Authorizer) IsPermitted(role id.Role, action Action) bool {
	allowed, ok := a.permissions[action]
	if !ok {
		return false
	}
	return allowed[role]
}

// IsAtLeast reports whether role ranks at or above minRole in the configured
// order. Roles missing from the order never satisfy any minimum.
func (a *Authorizer) IsAtLeast(role, minRole id.Role) bool {
	r, ok := a.rank[role]
	if !ok {
		return false
	}
	min, ok := a.rank[minRole]
	if !ok {
		return false
	}
	return r >= min
}

// IsReviewer reports whether the role belongs to the configured reviewer set.
func (a *Authorizer) IsReviewer(role id.Role) bool {
	return a.IsPermitted(role, ActionReview)
}

func buildRank(order []id.Role) map[id.Role]int {
	rank := make(map[id.Role]int, len(order))
	for i, role := range order {
		rank[role] = i + 1
	}
	return rank
}

func roleSet(roles []id.Role) map[id.Role]bool {
	set := make(map[id.Role]bool, len(roles))
	for _, role := range roles {
		set[role] = true
	}
	return set
}

package audit

import (
	"context"
	"time"

	id "knowledgehub/pkg/domain"
)

// Action names one governed operation in the audit trail.
type Action string

const (
	ActionUpload            Action = "UPLOAD"
	ActionVersionAdded      Action = "VERSION_ADDED"
	ActionApprove           Action = "APPROVE"
	ActionReject            Action = "REJECT"
	ActionRevisionRequested Action = "REVISION_REQUESTED"
	ActionResubmit          Action = "RESUBMIT"
	ActionArchive           Action = "ARCHIVE"
	ActionComment           Action = "COMMENT"
	ActionCommentDelete     Action = "COMMENT_DELETE"
	ActionLike              Action = "LIKE"
	ActionUnlike            Action = "UNLIKE"
	ActionRate              Action = "RATE"
	ActionFlag              Action = "FLAG"
	ActionResolveFlag       Action = "RESOLVE_FLAG"
	ActionRuleChange        Action = "RULE_CHANGE"
	ActionRoleChange        Action = "ROLE_CHANGE"
	ActionLogin             Action = "LOGIN"
)

// Category classifies audit entries by their primary purpose. This enables
// different retention policies and routing without touching emit sites.
type Category string

const (
	// CategoryCompliance covers entries with governance significance that
	// require long retention: lifecycle decisions, flags, rule changes.
	CategoryCompliance Category = "compliance"

	// CategorySecurity covers entries relevant to access monitoring.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine interaction history.
	CategoryOperations Category = "operations"
)

// actionCategories maps each action to its category.
var actionCategories = map[Action]Category{
	ActionUpload:            CategoryCompliance,
	ActionVersionAdded:      CategoryCompliance,
	ActionApprove:           CategoryCompliance,
	ActionReject:            CategoryCompliance,
	ActionRevisionRequested: CategoryCompliance,
	ActionResubmit:          CategoryCompliance,
	ActionArchive:           CategoryCompliance,
	ActionFlag:              CategoryCompliance,
	ActionResolveFlag:       CategoryCompliance,
	ActionRuleChange:        CategoryCompliance,

	ActionRoleChange: CategorySecurity,
	ActionLogin:      CategorySecurity,

	ActionComment:       CategoryOperations,
	ActionCommentDelete: CategoryOperations,
	ActionLike:          CategoryOperations,
	ActionUnlike:        CategoryOperations,
	ActionRate:          CategoryOperations,
}

// Category returns the Category for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Entry is one immutable record of a governed action. Entries are append-only
// and ordered per target: by timestamp, ties broken by arrival sequence.
type Entry struct {
	// Sequence is assigned by the store at append time and orders entries
	// within one target's history when timestamps collide.
	Sequence uint64 `json:"sequence"`

	Timestamp time.Time     `json:"timestamp"`
	ActorID   id.UserID     `json:"actor_id"`
	ActorRole id.Role       `json:"actor_role"`
	Action    Action        `json:"action"`
	TargetID  id.DocumentID `json:"target_id"`
	Details   string        `json:"details,omitempty"`

	// RequestID correlates the entry with the HTTP request that caused it.
	RequestID string `json:"request_id,omitempty"`
}

// Store persists audit entries. Append must be atomic with the governed
// mutation it records: the postgres implementation joins the caller's
// transaction through the tx-in-context execer.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByTarget(ctx context.Context, targetID id.DocumentID) ([]Entry, error)
	ListByActor(ctx context.Context, actorID id.UserID) ([]Entry, error)
}

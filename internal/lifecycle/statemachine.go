// Package lifecycle governs document status transitions. This is pure domain
// logic: no I/O, no side effects beyond the document passed in. Role policy
// comes from the rbac authorizer, never from this package.
package lifecycle

import (
	"time"

	"knowledgehub/internal/document/models"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
)

// Authorizer is the slice of rbac the state machine consults. The reviewer
// set is configuration owned elsewhere; the machine only asks membership.
type Authorizer interface {
	IsReviewer(role id.Role) bool
}

// Actor identifies who requests a transition.
type Actor struct {
	ID   id.UserID
	Role id.Role
}

// Outcome describes one committed transition.
type Outcome struct {
	From models.Status
	To   models.Status

	// AwardApproval is set only for Pending -> Approved, which triggers
	// exactly one reputation award to the uploader.
	AwardApproval bool
}

// Machine applies the transition table. A Machine is stateless and safe for
// concurrent use.
type Machine struct {
	authz Authorizer
}

func New(authz Authorizer) *Machine {
	return &Machine{authz: authz}
}

// Transition validates and applies a status change in place. On any error the
// document is left untouched: no status change, no reason recorded, and the
// caller must not emit audit or reputation effects.
//
// Errors: CodeForbidden when the actor's role does not permit the transition;
// CodeInvalidTransition when the source state does not allow the target or a
// required field (rejection reason) is missing.
func (m *Machine) Transition(doc *models.Document, actor Actor, target models.Status, reason string, now time.Time) (Outcome, error) {
	from := doc.Status

	switch {
	case from == models.StatusPending && target == models.StatusApproved:
		if !m.authz.IsReviewer(actor.Role) {
			return Outcome{}, dErrors.New(dErrors.CodeForbidden, "only reviewers may approve")
		}
		doc.Status = models.StatusApproved
		doc.RejectionReason = ""
		doc.UpdatedAt = now
		return Outcome{From: from, To: target, AwardApproval: true}, nil

	case from == models.StatusPending && target == models.StatusRejected:
		if !m.authz.IsReviewer(actor.Role) {
			return Outcome{}, dErrors.New(dErrors.CodeForbidden, "only reviewers may reject")
		}
		if reason == "" {
			return Outcome{}, dErrors.New(dErrors.CodeInvalidTransition, "rejection requires a reason")
		}
		doc.Status = models.StatusRejected
		doc.RejectionReason = reason
		doc.UpdatedAt = now
		return Outcome{From: from, To: target}, nil

	case from == models.StatusPending && target == models.StatusDraft:
		// "Request revision": the document goes back to its owner. Revision
		// notes ride along in the audit details, not on the document.
		if !m.authz.IsReviewer(actor.Role) {
			return Outcome{}, dErrors.New(dErrors.CodeForbidden, "only reviewers may request revision")
		}
		doc.Status = models.StatusDraft
		doc.UpdatedAt = now
		return Outcome{From: from, To: target}, nil

	case from == models.StatusDraft && target == models.StatusPending:
		// Re-submission after revision: any authenticated uploader.
		doc.Status = models.StatusPending
		doc.UpdatedAt = now
		return Outcome{From: from, To: target}, nil

	case (from == models.StatusApproved || from == models.StatusRejected) && target == models.StatusArchived:
		if actor.ID != doc.OwnerID && !m.authz.IsReviewer(actor.Role) {
			return Outcome{}, dErrors.New(dErrors.CodeForbidden, "only the owner or a reviewer may archive")
		}
		doc.Status = models.StatusArchived
		doc.UpdatedAt = now
		return Outcome{From: from, To: target}, nil
	}

	// Everything else, including any transition out of Archived, is invalid
	// regardless of role.
	return Outcome{}, dErrors.New(dErrors.CodeInvalidTransition,
		"cannot transition from "+string(from)+" to "+string(target))
}

package service

import (
	"context"
	"fmt"

	"knowledgehub/internal/audit"
	"knowledgehub/internal/document/models"
	"knowledgehub/internal/lifecycle"
	"knowledgehub/internal/notify"
	"knowledgehub/internal/reputation"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/requestcontext"
)

// ChangeStatusRequest asks for a lifecycle transition.
type ChangeStatusRequest struct {
	Status string `json:"status"`

	// Reason is required when rejecting.
	Reason string `json:"reason,omitempty"`
}

// ChangeStatus validates and applies one lifecycle transition, records it in
// the audit trail, and settles the side effects: an approval awards the owner
// reputation and notifies them, a rejection notifies them with the reason.
func (s *Service) ChangeStatus(ctx context.Context, docID id.DocumentID, req ChangeStatusRequest) (*models.Document, error) {
	ctx, span := s.tracer.Start(ctx, "document.change_status")
	defer span.End()

	target, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	actor := s.actor(ctx)
	var outcome lifecycle.Outcome
	doc, err := s.mutate(ctx, docID, func(doc *models.Document) error {
		outcome, err = s.lifecycle.Transition(doc, actor, target, req.Reason, requestcontext.Now(ctx))
		return err
	}, func(*models.Document) (audit.Action, string) {
		detail := fmt.Sprintf("from=%s to=%s", outcome.From, outcome.To)
		if req.Reason != "" {
			detail += fmt.Sprintf(" reason=%q", req.Reason)
		}
		return transitionAction(outcome), detail
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(outcome.From), string(outcome.To)).Inc()
	}

	switch outcome.To {
	case models.StatusApproved:
		if outcome.AwardApproval {
			s.award(ctx, doc.OwnerID, reputation.EventApprovalReceived)
		}
		s.publish(ctx, notify.Event{
			Type:       notify.EventDocumentApproved,
			DocumentID: doc.ID,
			ActorID:    actor.ID,
			OwnerID:    doc.OwnerID,
		})
	case models.StatusRejected:
		s.publish(ctx, notify.Event{
			Type:       notify.EventDocumentRejected,
			DocumentID: doc.ID,
			ActorID:    actor.ID,
			OwnerID:    doc.OwnerID,
			Detail:     doc.RejectionReason,
		})
	}

	s.logger.InfoContext(ctx, "document transitioned",
		"document_id", doc.ID.String(),
		"from", string(outcome.From),
		"to", string(outcome.To),
		"actor_id", actor.ID.String(),
	)
	return doc, nil
}

// transitionAction maps a completed transition to its audit action. The
// target status determines the action for every pair the state machine
// allows.
func transitionAction(outcome lifecycle.Outcome) audit.Action {
	switch outcome.To {
	case models.StatusApproved:
		return audit.ActionApprove
	case models.StatusRejected:
		return audit.ActionReject
	case models.StatusArchived:
		return audit.ActionArchive
	case models.StatusDraft:
		return audit.ActionRevisionRequested
	default:
		return audit.ActionResubmit
	}
}

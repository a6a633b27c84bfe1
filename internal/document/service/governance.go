package service

import (
	"context"
	"fmt"
	"strings"

	"knowledgehub/internal/audit"
	"knowledgehub/internal/document/models"
	"knowledgehub/internal/notify"
	"knowledgehub/internal/rbac"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	"knowledgehub/pkg/requestcontext"
)

// Flag marks a document for governance review. Flagging is open to every
// role; the reason becomes part of the document and the audit trail.
func (s *Service) Flag(ctx context.Context, docID id.DocumentID, reason string) (*models.Document, error) {
	if !s.authorizer.IsPermitted(requestcontext.Role(ctx), rbac.ActionFlag) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not flag documents")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a flag reason is required")
	}

	doc, err := s.mutate(ctx, docID, func(doc *models.Document) error {
		doc.FlagReason = reason
		doc.UpdatedAt = requestcontext.Now(ctx)
		return nil
	}, func(*models.Document) (audit.Action, string) {
		return audit.ActionFlag, fmt.Sprintf("reason=%q", reason)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notify.Event{
		Type:       notify.EventDocumentFlagged,
		DocumentID: doc.ID,
		ActorID:    requestcontext.UserID(ctx),
		OwnerID:    doc.OwnerID,
		Detail:     reason,
	})
	return doc, nil
}

// ResolveFlag closes an open flag. Reviewer-only; the resolution note lands
// in the audit trail, not on the document.
func (s *Service) ResolveFlag(ctx context.Context, docID id.DocumentID, resolution string) (*models.Document, error) {
	if !s.authorizer.IsPermitted(requestcontext.Role(ctx), rbac.ActionResolveFlag) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not resolve flags")
	}

	resolution = strings.TrimSpace(resolution)
	doc, err := s.mutate(ctx, docID, func(doc *models.Document) error {
		if doc.FlagReason == "" {
			return dErrors.New(dErrors.CodeValidation, "document is not flagged")
		}
		doc.FlagReason = ""
		doc.UpdatedAt = requestcontext.Now(ctx)
		return nil
	}, func(*models.Document) (audit.Action, string) {
		if resolution == "" {
			return audit.ActionResolveFlag, ""
		}
		return audit.ActionResolveFlag, fmt.Sprintf("resolution=%q", resolution)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

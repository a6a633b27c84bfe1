package service

import (
	"context"
	"errors"

	"knowledgehub/internal/audit"
	"knowledgehub/internal/document/models"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	"knowledgehub/pkg/platform/sentinel"
	"knowledgehub/pkg/requestcontext"
)

// Get loads one document.
func (s *Service) Get(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	return doc, nil
}

// List returns every document, oldest first.
func (s *Service) List(ctx context.Context) ([]*models.Document, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// ListMine returns the caller's documents, oldest first.
func (s *Service) ListMine(ctx context.Context) ([]*models.Document, error) {
	docs, err := s.store.ListByOwner(ctx, requestcontext.UserID(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// History returns the document's audit trail in per-document order. Reviewer
// roles see any document's history; everyone else only their own.
func (s *Service) History(ctx context.Context, docID id.DocumentID) ([]audit.Entry, error) {
	doc, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != requestcontext.UserID(ctx) && !s.authorizer.IsReviewer(requestcontext.Role(ctx)) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not view this document's history")
	}
	if s.auditTrail == nil {
		return nil, nil
	}
	entries, err := s.auditTrail.History(ctx, docID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail unavailable")
	}
	return entries, nil
}

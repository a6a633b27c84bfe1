package service

import (
	"context"
	"fmt"
	"strings"

	"knowledgehub/internal/audit"
	"knowledgehub/internal/document/models"
	"knowledgehub/internal/notify"
	"knowledgehub/internal/rbac"
	"knowledgehub/internal/reputation"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	"knowledgehub/pkg/requestcontext"
)

const maxCommentLen = 4000

// Rate records the caller's 1-5 star rating. Re-rating overwrites the
// caller's previous value; the owner's reputation award applies only to the
// first rating from each distinct user, and never to the owner's own rating.
func (s *Service) Rate(ctx context.Context, docID id.DocumentID, stars int) (*models.Document, error) {
	if !s.authorizer.IsPermitted(requestcontext.Role(ctx), rbac.ActionRate) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not rate documents")
	}
	raterID := requestcontext.UserID(ctx)

	var firstRating bool
	doc, err := s.mutate(ctx, docID, func(doc *models.Document) error {
		var err error
		firstRating, err = doc.SetRating(raterID, stars, requestcontext.Now(ctx))
		if err != nil && dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return err
	}, func(*models.Document) (audit.Action, string) {
		return audit.ActionRate, fmt.Sprintf("stars=%d", stars)
	})
	if err != nil {
		return nil, err
	}

	if firstRating && raterID != doc.OwnerID {
		s.award(ctx, doc.OwnerID, reputation.EventRatingReceived)
	}
	return doc, nil
}

// AddComment appends a comment and credits the document owner.
func (s *Service) AddComment(ctx context.Context, docID id.DocumentID, text string) (*models.Comment, error) {
	if !s.authorizer.IsPermitted(requestcontext.Role(ctx), rbac.ActionComment) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not comment")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "comment text cannot be empty")
	}
	if len(text) > maxCommentLen {
		return nil, dErrors.New(dErrors.CodeValidation, "comment text is too long")
	}
	authorID := requestcontext.UserID(ctx)

	var comment models.Comment
	doc, err := s.mutate(ctx, docID, func(doc *models.Document) error {
		var err error
		comment, err = doc.AddComment(id.NewCommentID(), authorID, text, requestcontext.Now(ctx))
		if err != nil && dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return err
	}, func(*models.Document) (audit.Action, string) {
		return audit.ActionComment, fmt.Sprintf("comment_id=%s", comment.ID)
	})
	if err != nil {
		return nil, err
	}

	if authorID != doc.OwnerID {
		s.award(ctx, doc.OwnerID, reputation.EventCommentReceived)
	}
	s.publish(ctx, notify.Event{
		Type:       notify.EventCommentCreated,
		DocumentID: doc.ID,
		ActorID:    authorID,
		OwnerID:    doc.OwnerID,
	})
	return &comment, nil
}

// DeleteComment removes a comment. Only the comment's author or a reviewer
// may delete it.
func (s *Service) DeleteComment(ctx context.Context, docID id.DocumentID, commentID id.CommentID) error {
	actorID := requestcontext.UserID(ctx)
	role := requestcontext.Role(ctx)

	_, err := s.mutate(ctx, docID, func(doc *models.Document) error {
		for _, comment := range doc.Comments {
			if comment.ID == commentID {
				if comment.AuthorID != actorID && !s.authorizer.IsReviewer(role) {
					return dErrors.New(dErrors.CodeForbidden, "only the author or a reviewer may delete a comment")
				}
				return doc.DeleteComment(commentID, requestcontext.Now(ctx))
			}
		}
		return dErrors.New(dErrors.CodeNotFound, "comment not found")
	}, func(*models.Document) (audit.Action, string) {
		return audit.ActionCommentDelete, fmt.Sprintf("comment_id=%s", commentID)
	})
	return err
}

// ToggleLike flips the caller's like. Unliking reverses the owner's award so
// a toggle cycle nets zero score drift.
func (s *Service) ToggleLike(ctx context.Context, docID id.DocumentID) (liked bool, err error) {
	if !s.authorizer.IsPermitted(requestcontext.Role(ctx), rbac.ActionLike) {
		return false, dErrors.New(dErrors.CodeForbidden, "role may not like documents")
	}
	userID := requestcontext.UserID(ctx)

	doc, err := s.mutate(ctx, docID, func(doc *models.Document) error {
		liked = doc.ToggleLike(userID, requestcontext.Now(ctx))
		return nil
	}, func(*models.Document) (audit.Action, string) {
		if liked {
			return audit.ActionLike, ""
		}
		return audit.ActionUnlike, ""
	})
	if err != nil {
		return false, err
	}

	event := reputation.EventLikeReceived
	if !liked {
		event = reputation.EventLikeRevoked
	}
	if userID != doc.OwnerID {
		s.award(ctx, doc.OwnerID, event)
	}
	if liked {
		s.publish(ctx, notify.Event{
			Type:       notify.EventDocumentLiked,
			DocumentID: doc.ID,
			ActorID:    userID,
			OwnerID:    doc.OwnerID,
		})
	}
	return liked, nil
}

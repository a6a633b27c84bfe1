package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"knowledgehub/internal/audit"
	"knowledgehub/internal/compliance"
	"knowledgehub/internal/document/models"
	"knowledgehub/internal/duplicate"
	"knowledgehub/internal/rbac"
	"knowledgehub/internal/reputation"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	"knowledgehub/pkg/requestcontext"
)

// UploadRequest carries a new document submission.
type UploadRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Domain      string   `json:"domain"`
	Region      string   `json:"region"`

	FileURL     string `json:"file_url"`
	ExternalURL string `json:"external_url"`

	// ConfirmDuplicate acknowledges a prior duplicate warning: instead of
	// creating a new document, the upload is appended as the next version of
	// the closest existing match.
	ConfirmDuplicate bool `json:"confirm_duplicate"`
}

// UploadResult is the outcome of an upload attempt. Exactly one of Document
// or Duplicates is the headline: when Duplicates is non-empty and the upload
// was not confirmed, no document was created and the caller must re-submit
// with ConfirmDuplicate or change the title.
type UploadResult struct {
	Document *models.Document `json:"document,omitempty"`

	// Duplicates lists near-matches above the similarity threshold, best first.
	Duplicates []duplicate.Candidate `json:"duplicates,omitempty"`

	// ComplianceIssues lists scanner findings attached to the document.
	ComplianceIssues []compliance.Issue `json:"compliance_issues,omitempty"`

	// AppendedToExisting is set when a confirmed duplicate became a new
	// version of an existing document instead of a separate record.
	AppendedToExisting bool `json:"appended_to_existing,omitempty"`

	// BadgesUnlocked lists badges the upload earned the uploader, if any.
	BadgesUnlocked []string `json:"badges_unlocked,omitempty"`
}

type uploadChecks struct {
	duplicates []duplicate.Candidate
	issues     []compliance.Issue
}

// runUploadChecks executes the duplicate and compliance screens in parallel
// under a shared deadline. Both are read-only, so a failure in one cancels
// the other without leaving partial state.
func (s *Service) runUploadChecks(ctx context.Context, req UploadRequest) (*uploadChecks, error) {
	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	checks := &uploadChecks{}
	start := time.Now()

	g.Go(func() error {
		docs, err := s.store.List(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load title corpus")
		}
		corpus := make([]duplicate.CorpusEntry, 0, len(docs))
		for _, doc := range docs {
			if doc.Status == models.StatusArchived {
				continue
			}
			corpus = append(corpus, duplicate.CorpusEntry{ID: doc.ID, Title: doc.Title})
		}
		checks.duplicates = s.duplicates.FindDuplicates(req.Title, corpus)
		return nil
	})

	g.Go(func() error {
		checks.issues = compliance.Scan(req.Title + "\n" + req.Description)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.CheckDuration.Observe(time.Since(start).Seconds())
		for _, issue := range checks.issues {
			s.metrics.ComplianceFindingsTotal.WithLabelValues(string(issue.Severity)).Inc()
		}
	}
	return checks, nil
}

// Upload screens a submission for duplicates and compliance findings, then
// either creates a new Pending document, reports a duplicate warning, or
// (when confirmed) appends the upload as the next version of the closest
// match. High-severity compliance findings mark the document sensitive but
// never block the upload; the review step decides.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "document.upload")
	defer span.End()

	role := requestcontext.Role(ctx)
	if !s.authorizer.IsPermitted(role, rbac.ActionUpload) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not upload documents")
	}
	if req.FileURL == "" && req.ExternalURL == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "either file_url or external_url is required")
	}

	checks, err := s.runUploadChecks(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("duplicates", len(checks.duplicates)),
		attribute.Int("compliance_findings", len(checks.issues)),
	)

	if len(checks.duplicates) > 0 {
		if !req.ConfirmDuplicate {
			if s.metrics != nil {
				s.metrics.UploadsTotal.WithLabelValues("duplicate_warning").Inc()
			}
			return &UploadResult{
				Duplicates:       checks.duplicates,
				ComplianceIssues: checks.issues,
			}, nil
		}
		return s.appendConfirmedDuplicate(ctx, req, checks)
	}

	return s.createDocument(ctx, req, checks)
}

func (s *Service) createDocument(ctx context.Context, req UploadRequest, checks *uploadChecks) (*UploadResult, error) {
	now := requestcontext.Now(ctx)
	ownerID := requestcontext.UserID(ctx)

	doc, err := models.New(id.NewDocumentID(), ownerID, req.Title, req.Description, req.Domain, req.Region, req.Tags, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if _, err := doc.AppendVersion(req.FileURL, req.ExternalURL, ownerID, now); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	applyComplianceFindings(doc, checks.issues)

	// The insert and its audit entry land together: one transaction when a
	// transactor is wired, otherwise the insert is taken back on a failed
	// append.
	persist := func(ctx context.Context) error {
		if err := s.store.Create(ctx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document")
		}
		if err := s.emitAudit(ctx, audit.ActionUpload, doc.ID, fmt.Sprintf("title=%q version=1", doc.Title)); err != nil {
			if s.transactor == nil {
				s.discard(ctx, doc.ID)
			}
			return err
		}
		return nil
	}
	if err := s.atomically(ctx, persist); err != nil {
		return nil, err
	}

	granted := s.award(ctx, ownerID, reputation.EventUpload)
	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues("created").Inc()
	}
	s.logger.InfoContext(ctx, "document created",
		"document_id", doc.ID.String(),
		"owner_id", ownerID.String(),
		"compliance_findings", len(checks.issues),
	)

	result := &UploadResult{Document: doc, ComplianceIssues: checks.issues}
	if granted != nil {
		result.BadgesUnlocked = granted.BadgesUnlocked
	}
	return result, nil
}

// appendConfirmedDuplicate attaches the upload as the next version of the
// closest match. The uploader keeps the reputation credit for contributing a
// version; ownership of the document does not change.
func (s *Service) appendConfirmedDuplicate(ctx context.Context, req UploadRequest, checks *uploadChecks) (*UploadResult, error) {
	best := checks.duplicates[0]
	uploaderID := requestcontext.UserID(ctx)

	doc, err := s.mutate(ctx, best.ID, func(doc *models.Document) error {
		if doc.Status == models.StatusArchived {
			return dErrors.New(dErrors.CodeInvalidTransition, "cannot add versions to an archived document")
		}
		if _, err := doc.AppendVersion(req.FileURL, req.ExternalURL, uploaderID, requestcontext.Now(ctx)); err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, err.Error())
			}
			return err
		}
		applyComplianceFindings(doc, checks.issues)
		return nil
	}, func(doc *models.Document) (audit.Action, string) {
		return audit.ActionVersionAdded,
			fmt.Sprintf("version=%d similarity=%d%%", doc.CurrentVersion(), best.SimilarityPercent)
	})
	if err != nil {
		return nil, err
	}

	granted := s.award(ctx, uploaderID, reputation.EventUpload)
	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues("version_added").Inc()
	}
	s.logger.InfoContext(ctx, "upload appended to existing document",
		"document_id", doc.ID.String(),
		"uploader_id", uploaderID.String(),
		"version", doc.CurrentVersion(),
	)

	result := &UploadResult{
		Document:           doc,
		Duplicates:         checks.duplicates,
		ComplianceIssues:   checks.issues,
		AppendedToExisting: true,
	}
	if granted != nil {
		result.BadgesUnlocked = granted.BadgesUnlocked
	}
	return result, nil
}

func applyComplianceFindings(doc *models.Document, issues []compliance.Issue) {
	if len(issues) == 0 {
		return
	}
	doc.ComplianceNotes = compliance.Notes(issues)
	if compliance.HasHighSeverity(issues) {
		doc.IsSensitive = true
	}
}

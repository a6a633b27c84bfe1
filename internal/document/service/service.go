// Package service orchestrates the document lifecycle: upload screening,
// status transitions, engagement, and governance actions. Every mutation runs
// through an optimistic read-modify-write cycle against the store, records an
// audit entry inside the same commit scope, and only then touches reputation
// and notifications.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"knowledgehub/internal/audit"
	docmetrics "knowledgehub/internal/document/metrics"
	"knowledgehub/internal/document/models"
	"knowledgehub/internal/duplicate"
	"knowledgehub/internal/lifecycle"
	"knowledgehub/internal/notify"
	"knowledgehub/internal/rbac"
	"knowledgehub/internal/reputation"
	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	"knowledgehub/pkg/platform/sentinel"
	"knowledgehub/pkg/requestcontext"
)

// DocumentStore persists document aggregates. Update must compare-and-swap on
// the document revision and return sentinel.ErrConflict when it loses.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	List(ctx context.Context) ([]*models.Document, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Document, error)
}

// AuditPublisher records governed actions. Emit failures abort the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
	History(ctx context.Context, targetID id.DocumentID) ([]audit.Entry, error)
}

// Transactor runs a function inside one storage transaction, handed to the
// stores through the context. With one configured, a document write and its
// audit append commit or roll back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReputationAwarder applies score events. Award failures are logged, never
// propagated: the governed mutation has already committed.
type ReputationAwarder interface {
	Award(ctx context.Context, userID id.UserID, event reputation.Event) (*reputation.Award, error)
}

// Authorizer answers permission queries for roles.
type Authorizer interface {
	IsPermitted(role id.Role, action rbac.Action) bool
	IsReviewer(role id.Role) bool
}

// Lifecycle validates and applies status transitions.
type Lifecycle interface {
	Transition(doc *models.Document, actor lifecycle.Actor, target models.Status, reason string, now time.Time) (lifecycle.Outcome, error)
}

// DuplicateChecker surfaces near-matches for a candidate title.
type DuplicateChecker interface {
	FindDuplicates(candidateTitle string, corpus []duplicate.CorpusEntry) []duplicate.Candidate
	Threshold() float64
}

// Notifier publishes engagement events. Fire-and-forget.
type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

// Service wires the upload checks, state machine, stores, and side effects.
type Service struct {
	store      DocumentStore
	duplicates DuplicateChecker
	authorizer Authorizer
	lifecycle  Lifecycle

	checkTimeout time.Duration

	logger     *slog.Logger
	transactor Transactor
	auditTrail AuditPublisher
	reputation ReputationAwarder
	notifier   Notifier
	metrics    *docmetrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditTrail = publisher }
}

func WithTransactor(t Transactor) Option {
	return func(s *Service) { s.transactor = t }
}

func WithReputation(awarder ReputationAwarder) Option {
	return func(s *Service) { s.reputation = awarder }
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithMetrics(m *docmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCheckTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.checkTimeout = d
		}
	}
}

// New constructs a Service.
func New(store DocumentStore, duplicates DuplicateChecker, authorizer Authorizer, lc Lifecycle, opts ...Option) *Service {
	s := &Service{
		store:        store,
		duplicates:   duplicates,
		authorizer:   authorizer,
		lifecycle:    lc,
		checkTimeout: 5 * time.Second,
		logger:       slog.Default(),
		tracer:       otel.Tracer("knowledgehub/document"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// auditRecord builds the audit entry for a completed mutation. It runs after
// the store write, inside the same commit scope.
type auditRecord func(doc *models.Document) (audit.Action, string)

// mutate runs a read-modify-write cycle against the store with one retry on
// revision conflict. The mutation callback must be commutative or idempotent
// on a re-read; callbacks that are neither return an error on the retry and
// the caller sees CodeConflict.
func (s *Service) mutate(ctx context.Context, docID id.DocumentID, fn func(doc *models.Document) error, record auditRecord) (*models.Document, error) {
	const attempts = 2
	for attempt := 1; ; attempt++ {
		doc, err := s.mutateOnce(ctx, docID, fn, record)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.ConflictRetriesTotal.Inc()
		}
		if attempt >= attempts {
			return nil, dErrors.New(dErrors.CodeConflict, "document was modified concurrently, retry the request")
		}
	}
}

// mutateOnce runs one round of the cycle. The store write and the audit
// append fail together: inside a transactor both ride one transaction, and
// without one a failed append restores the document's previous state before
// the error propagates.
func (s *Service) mutateOnce(ctx context.Context, docID id.DocumentID, fn func(doc *models.Document) error, record auditRecord) (*models.Document, error) {
	var doc *models.Document
	write := func(ctx context.Context) error {
		var err error
		doc, err = s.store.FindByID(ctx, docID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "document not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
		}
		snapshot := doc.Clone()

		if err := fn(doc); err != nil {
			return err
		}

		if err := s.store.Update(ctx, doc); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
		}

		action, details := record(doc)
		if err := s.emitAudit(ctx, action, docID, details); err != nil {
			if s.transactor == nil {
				s.revert(ctx, snapshot, doc.Revision)
			}
			return err
		}
		return nil
	}
	if err := s.atomically(ctx, write); err != nil {
		return nil, err
	}
	return doc, nil
}

// atomically runs fn inside the transactor when one is configured, directly
// otherwise. On the direct path fn compensates for partial state itself.
func (s *Service) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.transactor != nil {
		return s.transactor.WithinTx(ctx, fn)
	}
	return fn(ctx)
}

// revert writes a pre-mutation snapshot back after an audit append failed
// with no transaction to roll back. The snapshot rides the failed write's
// revision so the compensating update wins unless another writer got in
// first, which is logged rather than retried.
func (s *Service) revert(ctx context.Context, snapshot *models.Document, revision uint64) {
	snapshot.Revision = revision
	if err := s.store.Update(ctx, snapshot); err != nil {
		s.logger.ErrorContext(ctx, "CRITICAL: failed to restore document after audit failure",
			"document_id", snapshot.ID.String(),
			"error", err,
		)
	}
}

// discard removes a just-created document after its audit append failed with
// no transaction to roll back.
func (s *Service) discard(ctx context.Context, docID id.DocumentID) {
	type deleter interface {
		Delete(ctx context.Context, docID id.DocumentID) error
	}
	d, ok := s.store.(deleter)
	if !ok {
		s.logger.ErrorContext(ctx, "CRITICAL: store cannot undo create after audit failure",
			"document_id", docID.String(),
		)
		return
	}
	if err := d.Delete(ctx, docID); err != nil {
		s.logger.ErrorContext(ctx, "CRITICAL: failed to undo create after audit failure",
			"document_id", docID.String(),
			"error", err,
		)
	}
}

// emitAudit records the governed action. The trail is fail-closed: an audit
// write failure aborts the whole operation.
func (s *Service) emitAudit(ctx context.Context, action audit.Action, targetID id.DocumentID, details string) error {
	if s.auditTrail == nil {
		return nil
	}
	return s.auditTrail.Emit(ctx, audit.Entry{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   requestcontext.UserID(ctx),
		ActorRole: requestcontext.Role(ctx),
		Action:    action,
		TargetID:  targetID,
		Details:   details,
	})
}

// award applies a reputation event after the mutation committed. Reputation is
// derived state, so failures degrade to a log line instead of failing the
// request. The returned award is nil when reputation is disabled or failed.
func (s *Service) award(ctx context.Context, userID id.UserID, event reputation.Event) *reputation.Award {
	if s.reputation == nil {
		return nil
	}
	result, err := s.reputation.Award(ctx, userID, event)
	if err != nil {
		s.logger.WarnContext(ctx, "reputation award failed",
			"user_id", userID.String(),
			"event", string(event),
			"error", err,
		)
		return nil
	}
	return result
}

func (s *Service) publish(ctx context.Context, event notify.Event) {
	if s.notifier == nil {
		return
	}
	event.OccurredAt = requestcontext.Now(ctx)
	s.notifier.Publish(ctx, event)
}

func (s *Service) actor(ctx context.Context) lifecycle.Actor {
	return lifecycle.Actor{
		ID:   requestcontext.UserID(ctx),
		Role: requestcontext.Role(ctx),
	}
}

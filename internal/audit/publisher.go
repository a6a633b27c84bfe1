// Package audit captures structured history entries for every governed
// mutation. Emission is fail-closed: if the entry cannot be persisted, the
// calling operation must fail too, so the trail never silently loses history.
package audit

import (
	"context"
	"log/slog"

	id "knowledgehub/pkg/domain"
	dErrors "knowledgehub/pkg/domain-errors"
	"knowledgehub/pkg/requestcontext"
)

// Publisher writes audit entries through a Store. It is append-only and uses
// the storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously persists an entry. Timestamp and request ID default from
// the request context when unset.
//
// Returns CodeUnavailable if persistence fails - the caller MUST fail its
// operation rather than proceed without an audit record.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, entry); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: audit append failed",
				"action", entry.Action,
				"target_id", entry.TargetID,
				"error", err,
			)
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail unavailable")
	}
	return nil
}

// History lists a document's audit entries in per-target order.
func (p *Publisher) History(ctx context.Context, targetID id.DocumentID) ([]Entry, error) {
	return p.store.ListByTarget(ctx, targetID)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"knowledgehub/internal/audit"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/platform/sentinel"
	txcontext "knowledgehub/pkg/platform/tx"

	"github.com/google/uuid"
)

// Store implements audit.Store on PostgreSQL. When the calling service put a
// transaction in context, the append rides that transaction so the governed
// mutation and its audit entry commit or roll back together.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an audit entry. The seq column is a bigserial, so arrival
// order within one target is preserved even under equal timestamps.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_entries
			(id, ts, actor_id, actor_role, action, category, target_id, details, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		entry.Timestamp,
		uuid.UUID(entry.ActorID),
		entry.ActorRole.String(),
		string(entry.Action),
		string(entry.Action.Category()),
		uuid.UUID(entry.TargetID),
		entry.Details,
		entry.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry (%v): %w", err, sentinel.ErrUnavailable)
	}
	return nil
}

// ListByTarget returns one document's history in per-target order.
func (s *Store) ListByTarget(ctx context.Context, targetID id.DocumentID) ([]audit.Entry, error) {
	query := `
		SELECT seq, ts, actor_id, actor_role, action, target_id, details, request_id
		FROM audit_entries
		WHERE target_id = $1
		ORDER BY ts, seq
	`
	return s.list(ctx, query, uuid.UUID(targetID))
}

// ListByActor returns every entry one actor produced, oldest first.
func (s *Store) ListByActor(ctx context.Context, actorID id.UserID) ([]audit.Entry, error) {
	query := `
		SELECT seq, ts, actor_id, actor_role, action, target_id, details, request_id
		FROM audit_entries
		WHERE actor_id = $1
		ORDER BY ts, seq
	`
	return s.list(ctx, query, uuid.UUID(actorID))
}

func (s *Store) list(ctx context.Context, query string, arg any) ([]audit.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry     audit.Entry
			actorID   uuid.UUID
			actorRole string
			action    string
			targetID  uuid.UUID
		)
		if err := rows.Scan(&entry.Sequence, &entry.Timestamp, &actorID, &actorRole,
			&action, &targetID, &entry.Details, &entry.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ActorID = id.UserID(actorID)
		entry.ActorRole = id.Role(actorRole)
		entry.Action = audit.Action(action)
		entry.TargetID = id.DocumentID(targetID)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

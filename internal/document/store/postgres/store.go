// Package postgres persists documents in PostgreSQL. The aggregate's embedded
// collections (versions, ratings, comments, likes) live in JSONB columns so a
// document is always read and written as one row, which keeps the optimistic
// revision check a single conditional UPDATE. The store shares the audit
// trail's database handle: when the calling service put a transaction in
// context, writes ride that transaction and commit together with the audit
// append.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"knowledgehub/internal/document/models"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/platform/sentinel"
	txcontext "knowledgehub/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const insertDocument = `
INSERT INTO documents (
	id, owner_id, title, description, tags, domain, region, status,
	versions, ratings, comments, likes,
	compliance_notes, is_sensitive, flag_reason, rejection_reason,
	created_at, updated_at, revision
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1)`

// Create inserts a new document at revision 1.
func (s *Store) Create(ctx context.Context, doc *models.Document) error {
	cols, err := collectionColumns(doc)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx, insertDocument,
		doc.ID.String(), doc.OwnerID.String(),
		doc.Title, doc.Description, pq.Array(doc.Tags), doc.Domain, doc.Region, string(doc.Status),
		cols.versions, cols.ratings, cols.comments, cols.likes,
		doc.ComplianceNotes, doc.IsSensitive, doc.FlagReason, doc.RejectionReason,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	doc.Revision = 1
	return nil
}

const selectDocument = `
SELECT id, owner_id, title, description, tags, domain, region, status,
	versions, ratings, comments, likes,
	compliance_notes, is_sensitive, flag_reason, rejection_reason,
	created_at, updated_at, revision
FROM documents
WHERE id = $1`

// FindByID loads one document, revision included.
func (s *Store) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := s.execer(ctx).QueryRowContext(ctx, selectDocument, docID.String())
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select document: %w", err)
	}
	return doc, nil
}

const updateDocument = `
UPDATE documents SET
	title = $3, description = $4, tags = $5, domain = $6, region = $7, status = $8,
	versions = $9, ratings = $10, comments = $11, likes = $12,
	compliance_notes = $13, is_sensitive = $14, flag_reason = $15, rejection_reason = $16,
	updated_at = $17, revision = revision + 1
WHERE id = $1 AND revision = $2`

// Update writes the document back only if the row's revision still matches
// the caller's copy. A stale revision (or a deleted row) matches nothing and
// returns sentinel.ErrConflict so the caller can re-read and retry.
func (s *Store) Update(ctx context.Context, doc *models.Document) error {
	cols, err := collectionColumns(doc)
	if err != nil {
		return err
	}
	res, err := s.execer(ctx).ExecContext(ctx, updateDocument,
		doc.ID.String(), doc.Revision,
		doc.Title, doc.Description, pq.Array(doc.Tags), doc.Domain, doc.Region, string(doc.Status),
		cols.versions, cols.ratings, cols.comments, cols.likes,
		doc.ComplianceNotes, doc.IsSensitive, doc.FlagReason, doc.RejectionReason,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document result: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	doc.Revision++
	return nil
}

const listDocuments = `
SELECT id, owner_id, title, description, tags, domain, region, status,
	versions, ratings, comments, likes,
	compliance_notes, is_sensitive, flag_reason, rejection_reason,
	created_at, updated_at, revision
FROM documents
ORDER BY created_at, id`

// List returns all documents, oldest first.
func (s *Store) List(ctx context.Context) ([]*models.Document, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, listDocuments)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

const listDocumentsByOwner = `
SELECT id, owner_id, title, description, tags, domain, region, status,
	versions, ratings, comments, likes,
	compliance_notes, is_sensitive, flag_reason, rejection_reason,
	created_at, updated_at, revision
FROM documents
WHERE owner_id = $1
ORDER BY created_at, id`

// ListByOwner returns the owner's documents, oldest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Document, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, listDocumentsByOwner, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("list documents by owner: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

type jsonColumns struct {
	versions []byte
	ratings  []byte
	comments []byte
	likes    []byte
}

func collectionColumns(doc *models.Document) (jsonColumns, error) {
	var cols jsonColumns
	var err error
	if cols.versions, err = json.Marshal(doc.Versions); err != nil {
		return cols, fmt.Errorf("marshal versions: %w", err)
	}
	if cols.ratings, err = json.Marshal(ratingsToJSON(doc.Ratings)); err != nil {
		return cols, fmt.Errorf("marshal ratings: %w", err)
	}
	if cols.comments, err = json.Marshal(doc.Comments); err != nil {
		return cols, fmt.Errorf("marshal comments: %w", err)
	}
	if cols.likes, err = json.Marshal(likesToJSON(doc.Likes)); err != nil {
		return cols, fmt.Errorf("marshal likes: %w", err)
	}
	return cols, nil
}

// JSON object keys must be strings, so the UserID-keyed maps round-trip
// through string-keyed shapes.
func ratingsToJSON(ratings map[id.UserID]int) map[string]int {
	out := make(map[string]int, len(ratings))
	for userID, stars := range ratings {
		out[userID.String()] = stars
	}
	return out
}

func likesToJSON(likes map[id.UserID]bool) []string {
	out := make([]string, 0, len(likes))
	for userID := range likes {
		out = append(out, userID.String())
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var docID, ownerID, status string
	var versions, ratings, comments, likes []byte
	err := row.Scan(
		&docID, &ownerID, &doc.Title, &doc.Description, pq.Array(&doc.Tags), &doc.Domain, &doc.Region, &status,
		&versions, &ratings, &comments, &likes,
		&doc.ComplianceNotes, &doc.IsSensitive, &doc.FlagReason, &doc.RejectionReason,
		&doc.CreatedAt, &doc.UpdatedAt, &doc.Revision,
	)
	if err != nil {
		return nil, err
	}

	if doc.ID, err = id.ParseDocumentID(docID); err != nil {
		return nil, fmt.Errorf("stored document id: %w", err)
	}
	if doc.OwnerID, err = id.ParseUserID(ownerID); err != nil {
		return nil, fmt.Errorf("stored owner id: %w", err)
	}
	doc.Status = models.Status(status)

	if err := json.Unmarshal(versions, &doc.Versions); err != nil {
		return nil, fmt.Errorf("unmarshal versions: %w", err)
	}
	var rawRatings map[string]int
	if err := json.Unmarshal(ratings, &rawRatings); err != nil {
		return nil, fmt.Errorf("unmarshal ratings: %w", err)
	}
	doc.Ratings = make(map[id.UserID]int, len(rawRatings))
	for raw, stars := range rawRatings {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored rater id: %w", err)
		}
		doc.Ratings[userID] = stars
	}
	if err := json.Unmarshal(comments, &doc.Comments); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	var rawLikes []string
	if err := json.Unmarshal(likes, &rawLikes); err != nil {
		return nil, fmt.Errorf("unmarshal likes: %w", err)
	}
	doc.Likes = make(map[id.UserID]bool, len(rawLikes))
	for _, raw := range rawLikes {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored liker id: %w", err)
		}
		doc.Likes[userID] = true
	}
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// isUniqueViolation reports a primary-key or unique-constraint failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

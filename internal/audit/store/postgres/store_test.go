package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgehub/internal/audit"
	id "knowledgehub/pkg/domain"
	"knowledgehub/pkg/platform/sentinel"
	txcontext "knowledgehub/pkg/platform/tx"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock, db
}

func sampleEntry() audit.Entry {
	return audit.Entry{
		Timestamp: time.Now(),
		ActorID:   id.NewUserID(),
		ActorRole: id.RoleSeniorConsultant,
		Action:    audit.ActionApprove,
		TargetID:  id.NewDocumentID(),
		Details:   "status pending -> approved",
		RequestID: "req-1",
	}
}

func TestAppend(t *testing.T) {
	store, mock, _ := newMockStore(t)
	entry := sampleEntry()

	mock.ExpectExec(`INSERT INTO audit_entries`).
		WithArgs(sqlmock.AnyArg(), entry.Timestamp, uuid.UUID(entry.ActorID),
			entry.ActorRole.String(), string(entry.Action), string(audit.CategoryCompliance),
			uuid.UUID(entry.TargetID), entry.Details, entry.RequestID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Append(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_JoinsContextTransaction(t *testing.T) {
	store, mock, db := newMockStore(t)
	entry := sampleEntry()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO audit_entries`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := txcontext.WithTx(context.Background(), tx)

	require.NoError(t, store.Append(ctx, entry))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_FailureIsUnavailable(t *testing.T) {
	store, mock, _ := newMockStore(t)

	mock.ExpectExec(`INSERT INTO audit_entries`).
		WillReturnError(sql.ErrConnDone)

	err := store.Append(context.Background(), sampleEntry())
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestListByTarget(t *testing.T) {
	store, mock, _ := newMockStore(t)
	target := id.NewDocumentID()
	actor := id.NewUserID()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"seq", "ts", "actor_id", "actor_role", "action", "target_id", "details", "request_id"}).
		AddRow(int64(1), now, uuid.UUID(actor), "consultant", "UPLOAD", uuid.UUID(target), "v1", "req-1").
		AddRow(int64(2), now, uuid.UUID(actor), "admin", "APPROVE", uuid.UUID(target), "", "req-2")

	mock.ExpectQuery(`SELECT seq, ts, actor_id, actor_role, action, target_id, details, request_id`).
		WithArgs(uuid.UUID(target)).
		WillReturnRows(rows)

	entries, err := store.ListByTarget(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionUpload, entries[0].Action)
	assert.Equal(t, audit.ActionApprove, entries[1].Action)
	assert.Equal(t, id.RoleAdmin, entries[1].ActorRole)
}

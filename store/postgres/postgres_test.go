package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/store/storetest"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := NewStore(db, zap.NewNop())
	store.now = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }
	return db, mock, store
}

func TestMigrate(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS cases`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_NewCase(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	doc := storetest.NewDocument(t, "2510001", "DOE, JANE")
	doc.ID = "case-1"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version FROM cases`).
		WithArgs("case-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO cases`).
		WithArgs("case-1", "2510001", sqlmock.AnyArg(), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_revisions`).
		WithArgs(sqlmock.AnyArg(), "case-1", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	saved, err := store.Save(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.Equal(t, "2025-01-10T12:00:00Z", saved.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_ExistingCaseIncrementsVersion(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	doc := storetest.NewDocument(t, "2510001", "DOE, JANE")
	doc.ID = "case-1"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version FROM cases`).
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))
	mock.ExpectExec(`INSERT INTO cases`).
		WithArgs("case-1", "2510001", sqlmock.AnyArg(), 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_revisions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	saved, err := store.Save(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, 5, saved.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_RevisionFailureRollsBack(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT version FROM cases`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO cases`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO case_revisions`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.Save(context.Background(), storetest.NewDocument(t, "2510001", "P"))

	assert.ErrorContains(t, err, "failed to append revision")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_Success(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	doc := storetest.NewDocument(t, "2510001", "DOE, JANE")
	doc.ID = "case-1"
	doc.Version = 2
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT document_json FROM cases`).
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"document_json"}).AddRow(data))

	got, err := store.Get(context.Background(), "case-1")

	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "DOE, JANE", got.Record.PatientName)
	assert.True(t, got.Derived.TotalObligation.Equal(doc.Derived.TotalObligation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT document_json FROM cases`).
		WithArgs("case-404").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "case-404")

	assert.True(t, generic.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"document_json"})
	for _, num := range []string{"2510001", "2590001"} {
		data, err := json.Marshal(storetest.NewDocument(t, num, "P"))
		require.NoError(t, err)
		rows.AddRow(data)
	}
	mock.ExpectQuery(`SELECT document_json FROM cases\s+ORDER BY obligation_number`).WillReturnRows(rows)

	docs, err := store.List(context.Background())

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "2590001", docs[1].Record.ObligationNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM cases`).WithArgs("case-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM cases`).WithArgs("case-2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "case-1"))
	assert.True(t, generic.IsNotFound(store.Delete(context.Background(), "case-2")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevisions(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	doc := storetest.NewDocument(t, "2510001", "P")
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	created := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM case_revisions`).
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "case_id", "version", "document_json", "created_at"}).
			AddRow("rev-1", "case-1", 1, data, created).
			AddRow("rev-2", "case-1", 2, data, created.Add(time.Hour)))

	revs, err := store.Revisions(context.Background(), "case-1")

	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "rev-2", revs[1].ID)
	assert.Equal(t, created.Add(time.Hour), revs[1].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNext(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO obligation_sequences`).
		WithArgs(25, "90").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO obligation_sequences`).
		WithArgs(25, "10").
		WillReturnError(errors.New("connection reset"))

	n, err := store.Next(context.Background(), 25, "90")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = store.Next(context.Background(), 25, "10")
	assert.ErrorIs(t, err, generic.ErrSequenceUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

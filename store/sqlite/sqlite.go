/*
Package sqlite provides a SQLite-backed CaseStore and SequenceSource.

PURPOSE:
  Default single-node persistence for case documents. The same patterns
  apply to PostgreSQL (store/postgres); only the SQL dialect differs.

INTERFACES IMPLEMENTED:
  medevac.CaseStore:      Case documents and their revisions
  medevac.SequenceSource: Obligation number counters

KEY TABLES:
  cases:                Current document per case (JSON)
  case_revisions:       Append-only history, one row per Save
  obligation_sequences: Counter per (fiscal year, agency code)

APPEND-ONLY ENFORCEMENT:
  case_revisions is never updated or deleted, not even when the case is.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The sequence UPSERT runs in a
  transaction so two callers can never draw the same value.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/medevac.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - medevac/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
)

// Store implements the case storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cases (
		id TEXT PRIMARY KEY,
		obligation_number TEXT NOT NULL DEFAULT '',
		document_json TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cases_obligation_number
		ON cases(obligation_number);

	-- Append-only history
	CREATE TABLE IF NOT EXISTS case_revisions (
		id TEXT PRIMARY KEY,
		case_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		document_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_case_revisions_case_version
		ON case_revisions(case_id, version);

	CREATE TABLE IF NOT EXISTS obligation_sequences (
		fiscal_year INTEGER NOT NULL,
		agency_code TEXT NOT NULL,
		value INTEGER NOT NULL,
		PRIMARY KEY (fiscal_year, agency_code)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CASES
// =============================================================================

// Save writes the document and appends a revision in one transaction.
func (s *Store) Save(ctx context.Context, doc medevac.CaseDocument) (medevac.CaseDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return medevac.CaseDocument{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx, "SELECT version FROM cases WHERE id = ?", doc.ID).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return medevac.CaseDocument{}, fmt.Errorf("failed to read case version: %w", err)
	}

	now := time.Now().UTC()
	doc.Version = version + 1
	doc.UpdatedAt = now.Format(time.RFC3339)

	data, err := json.Marshal(doc)
	if err != nil {
		return medevac.CaseDocument{}, fmt.Errorf("failed to encode case: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cases (id, obligation_number, document_json, version, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			obligation_number = excluded.obligation_number,
			document_json = excluded.document_json,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Record.ObligationNumber, string(data), doc.Version, doc.UpdatedAt)
	if err != nil {
		return medevac.CaseDocument{}, fmt.Errorf("failed to save case: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO case_revisions (id, case_id, version, document_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), doc.ID, doc.Version, string(data), now.Format(time.RFC3339Nano))
	if err != nil {
		return medevac.CaseDocument{}, fmt.Errorf("failed to append revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return medevac.CaseDocument{}, fmt.Errorf("failed to commit case: %w", err)
	}
	return doc, nil
}

// Get returns the current document for a case.
func (s *Store) Get(ctx context.Context, id string) (medevac.CaseDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx, "SELECT document_json FROM cases WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return medevac.CaseDocument{}, &generic.NotFoundError{Kind: "case", ID: id}
	}
	if err != nil {
		return medevac.CaseDocument{}, fmt.Errorf("failed to get case: %w", err)
	}
	return decodeDocument(data)
}

// List returns every case ordered by obligation number.
func (s *Store) List(ctx context.Context) ([]medevac.CaseDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_json FROM cases
		ORDER BY obligation_number ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	docs := []medevac.CaseDocument{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes the current document. Revisions stay.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM cases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "case", ID: id}
	}
	return nil
}

// Revisions returns the history of a case, oldest first.
func (s *Store) Revisions(ctx context.Context, caseID string) ([]medevac.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, version, document_json, created_at
		FROM case_revisions
		WHERE case_id = ?
		ORDER BY version ASC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	var revs []medevac.Revision
	for rows.Next() {
		var (
			rev       medevac.Revision
			data      string
			createdAt string
		)
		if err := rows.Scan(&rev.ID, &rev.CaseID, &rev.Version, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		if rev.Document, err = decodeDocument(data); err != nil {
			return nil, err
		}
		rev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, &generic.NotFoundError{Kind: "case", ID: caseID}
	}
	return revs, nil
}

func decodeDocument(data string) (medevac.CaseDocument, error) {
	var doc medevac.CaseDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return medevac.CaseDocument{}, fmt.Errorf("failed to decode case: %w", err)
	}
	return doc, nil
}

// =============================================================================
// OBLIGATION SEQUENCES
// =============================================================================

// Next returns the next obligation sequence value for the year and agency
// code, starting at 1.
func (s *Store) Next(ctx context.Context, fiscalYear int, agencyCode string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var value int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO obligation_sequences (fiscal_year, agency_code, value)
		VALUES (?, ?, 1)
		ON CONFLICT(fiscal_year, agency_code) DO UPDATE SET value = value + 1
		RETURNING value
	`, fiscalYear, agencyCode).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", generic.ErrSequenceUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", generic.ErrSequenceUnavailable, err)
	}
	return value, nil
}

var (
	_ medevac.CaseStore      = (*Store)(nil)
	_ medevac.SequenceSource = (*Store)(nil)
)

/*
store.go - Persistence interface for case documents

PURPOSE:
  Defines the boundary between the case engine and whatever stores the
  merged record + derived document. The engine never calls it; the API
  layer saves what the Editor returns.

REVISIONS:
  Every Save appends a revision holding the full document. Revisions are
  never updated or deleted, even when the case itself is deleted, so the
  edit history of a case can be audited.

IMPLEMENTATIONS:
  - store/memory: In-memory for testing
  - store/sqlite: Default single-node deployment
  - store/postgres: Shared deployment

SEE ALSO:
  - session.go: Editor produces the documents stored here
  - obligation.go: SequenceSource, implemented by the same stores
*/
package medevac

import (
	"context"
	"time"
)

// CaseStore persists case documents.
type CaseStore interface {
	// Save inserts or replaces the document and returns it with the version
	// incremented. Last write wins; callers own single-writer semantics.
	Save(ctx context.Context, doc CaseDocument) (CaseDocument, error)

	// Get returns the current document or a generic.NotFoundError.
	Get(ctx context.Context, id string) (CaseDocument, error)

	// List returns every current document ordered by obligation number.
	List(ctx context.Context) ([]CaseDocument, error)

	// Delete removes the current document. Revisions are kept.
	Delete(ctx context.Context, id string) error

	// Revisions returns the saved history of a case, oldest first.
	Revisions(ctx context.Context, caseID string) ([]Revision, error)
}

// Revision is one saved version of a case.
type Revision struct {
	ID        string       `json:"id"`
	CaseID    string       `json:"caseId"`
	Version   int          `json:"version"`
	Document  CaseDocument `json:"document"`
	CreatedAt time.Time    `json:"createdAt"`
}

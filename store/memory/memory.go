// Package memory provides an in-memory CaseStore and SequenceSource.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	cases     map[string]medevac.CaseDocument
	revisions map[string][]medevac.Revision
	sequence  *medevac.MemorySequence
	now       func() time.Time
}

func New() *Store {
	return &Store{
		cases:     make(map[string]medevac.CaseDocument),
		revisions: make(map[string][]medevac.Revision),
		sequence:  medevac.NewMemorySequence(),
		now:       time.Now,
	}
}

// Save stores the document and appends a revision. An empty ID gets a new
// UUID.
func (m *Store) Save(_ context.Context, doc medevac.CaseDocument) (medevac.CaseDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := m.now().UTC()
	doc.Version = m.cases[doc.ID].Version + 1
	doc.UpdatedAt = now.Format(time.RFC3339)

	m.cases[doc.ID] = doc.Clone()
	m.revisions[doc.ID] = append(m.revisions[doc.ID], medevac.Revision{
		ID:        uuid.NewString(),
		CaseID:    doc.ID,
		Version:   doc.Version,
		Document:  doc.Clone(),
		CreatedAt: now,
	})
	return doc.Clone(), nil
}

func (m *Store) Get(_ context.Context, id string) (medevac.CaseDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.cases[id]
	if !ok {
		return medevac.CaseDocument{}, &generic.NotFoundError{Kind: "case", ID: id}
	}
	return doc.Clone(), nil
}

func (m *Store) List(_ context.Context) ([]medevac.CaseDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]medevac.CaseDocument, 0, len(m.cases))
	for _, doc := range m.cases {
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Record.ObligationNumber, out[j].Record.ObligationNumber
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Store) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cases[id]; !ok {
		return &generic.NotFoundError{Kind: "case", ID: id}
	}
	delete(m.cases, id)
	return nil
}

func (m *Store) Revisions(_ context.Context, caseID string) ([]medevac.Revision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	revs, ok := m.revisions[caseID]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "case", ID: caseID}
	}
	out := make([]medevac.Revision, len(revs))
	for i, rev := range revs {
		rev.Document = rev.Document.Clone()
		out[i] = rev
	}
	return out, nil
}

// Next implements medevac.SequenceSource.
func (m *Store) Next(ctx context.Context, fiscalYear int, agencyCode string) (int, error) {
	return m.sequence.Next(ctx, fiscalYear, agencyCode)
}

var (
	_ medevac.CaseStore      = (*Store)(nil)
	_ medevac.SequenceSource = (*Store)(nil)
)

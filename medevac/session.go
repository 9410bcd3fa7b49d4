package medevac

import (
	"context"
	"time"

	"github.com/warp/medevac-engine/generic"
)

// =============================================================================
// EDITOR - One edit, then obligation number, then a full recompute
// =============================================================================

// Edit mutates a copy of the record. Returning an error rejects the edit.
type Edit func(CaseRecord) (CaseRecord, error)

// Editor sequences an edit session step: apply the edit, assign the
// obligation number the first time an agency is set, recompute.
type Editor struct {
	seq   SequenceSource
	posts *PostRegistry
	now   func() time.Time
}

func NewEditor(seq SequenceSource, posts *PostRegistry, now func() time.Time) *Editor {
	if now == nil {
		now = time.Now
	}
	if posts == nil {
		posts = NewPostRegistry(nil)
	}
	return &Editor{seq: seq, posts: posts, now: now}
}

// Today is the editor's clock truncated to a calendar day.
func (e *Editor) Today() generic.TimePoint {
	return generic.FromTime(e.now())
}

// Engine returns an engine bound to the post table in effect right now.
func (e *Editor) Engine() *Engine {
	return NewEngine(e.posts.Current())
}

// Apply runs edit against current and returns the new record and its
// derived fields. An existing obligation number survives any edit.
func (e *Editor) Apply(ctx context.Context, current CaseRecord, edit Edit) (CaseRecord, DerivedFields, error) {
	next := current.Clone()
	if edit != nil {
		var err error
		next, err = edit(next)
		if err != nil {
			return current, DerivedFields{}, err
		}
	}
	next.ObligationNumber = current.ObligationNumber
	return e.Finalize(ctx, next)
}

// Create starts a new case from r. Any obligation number the caller put on
// r is discarded; numbers only come from the sequence.
func (e *Editor) Create(ctx context.Context, r CaseRecord) (CaseRecord, DerivedFields, error) {
	r.ObligationNumber = ""
	return e.Finalize(ctx, r)
}

// Finalize assigns a missing obligation number and recomputes.
func (e *Editor) Finalize(ctx context.Context, r CaseRecord) (CaseRecord, DerivedFields, error) {
	today := e.Today()
	r = Normalize(r)

	if err := CheckContract(&r); err != nil {
		return r, DerivedFields{}, err
	}

	if NeedsObligationNumber(&r) && e.seq != nil {
		num, err := GenerateObligationNumber(ctx, &r, today, e.seq)
		if err != nil {
			return r, DerivedFields{}, err
		}
		r.ObligationNumber = num
	}

	derived, err := e.Engine().Recompute(&r, today)
	if err != nil {
		return r, DerivedFields{}, err
	}
	return Merge(&r, derived), derived, nil
}

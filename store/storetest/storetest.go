// Package storetest holds the behaviour every medevac.CaseStore must share.
// Each store package runs it against its own implementation.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
)

// Store is what the suite needs from an implementation.
type Store interface {
	medevac.CaseStore
	medevac.SequenceSource
}

// NewDocument builds a recomputed document for a case.
func NewDocument(t *testing.T, obligation, patient string) medevac.CaseDocument {
	t.Helper()
	r := medevac.NewCaseRecord()
	r.ObligationNumber = obligation
	r.PatientName = patient
	r.AgencyType = medevac.AgencyDOS
	r.InitialStartDate = generic.NewTimePoint(2025, time.January, 6)
	r.InitialEndDate = generic.NewTimePoint(2025, time.January, 10)
	r.FundingCableInDate = generic.NewTimePoint(2025, time.January, 6)
	r.PerDiems = []medevac.PerDiem{{Rate: decimal.NewFromInt(200), Days: 3}}
	r.Extensions = []medevac.Extension{{
		ExtensionNumber:  1,
		ExtensionEndDate: generic.NewTimePoint(2025, time.January, 20),
		PerDiems:         []medevac.ExtensionPerDiem{{Rate: decimal.NewFromInt(180), Days: 5, Location: "Pretoria"}},
	}}

	d, err := medevac.Recompute(&r, generic.NewTimePoint(2025, time.January, 10))
	require.NoError(t, err)
	return medevac.CaseDocument{Record: medevac.Merge(&r, d), Derived: d}
}

// Run exercises the CaseStore and SequenceSource contract.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAssignsIDAndVersion", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		// GIVEN: A new document without an ID
		saved, err := s.Save(ctx, NewDocument(t, "2510001", "DOE, JANE"))
		require.NoError(t, err)

		// THEN: The store assigns one and starts at version 1
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, 1, saved.Version)
		assert.NotEmpty(t, saved.UpdatedAt)

		// WHEN: Saved again
		saved.Record.PatientName = "DOE, JOHN"
		again, err := s.Save(ctx, saved)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, again.ID)
		assert.Equal(t, 2, again.Version)
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		saved, err := s.Save(ctx, NewDocument(t, "2510001", "DOE, JANE"))
		require.NoError(t, err)

		got, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "DOE, JANE", got.Record.PatientName)
		assert.Equal(t, "2025-01-06", got.Record.InitialStartDate.String())
		assert.True(t, got.Record.FundingCableSentDate.IsZero())
		require.Len(t, got.Record.Extensions, 1)
		assert.Equal(t, "Pretoria", got.Record.Extensions[0].PerDiems[0].Location)
		assert.True(t, got.Derived.TotalObligation.Equal(saved.Derived.TotalObligation))
		assert.Equal(t, saved.Derived.MedevacStatus, got.Derived.MedevacStatus)
		assert.Equal(t, "2025-01-20", got.Derived.EffectiveEndDate.String())
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "nope")
		assert.True(t, generic.IsNotFound(err))
	})

	t.Run("ListOrderedByObligationNumber", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, num := range []string{"2590002", "2510001", "2590001"} {
			_, err := s.Save(ctx, NewDocument(t, num, "P"))
			require.NoError(t, err)
		}

		docs, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "2510001", docs[0].Record.ObligationNumber)
		assert.Equal(t, "2590001", docs[1].Record.ObligationNumber)
		assert.Equal(t, "2590002", docs[2].Record.ObligationNumber)
	})

	t.Run("DeleteKeepsRevisions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		saved, err := s.Save(ctx, NewDocument(t, "2510001", "DOE, JANE"))
		require.NoError(t, err)
		_, err = s.Save(ctx, saved)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, saved.ID))
		_, err = s.Get(ctx, saved.ID)
		assert.True(t, generic.IsNotFound(err))
		assert.True(t, generic.IsNotFound(s.Delete(ctx, saved.ID)))

		revs, err := s.Revisions(ctx, saved.ID)
		require.NoError(t, err)
		require.Len(t, revs, 2)
		assert.Equal(t, 1, revs[0].Version)
		assert.Equal(t, 2, revs[1].Version)
		assert.Equal(t, saved.ID, revs[1].CaseID)
		assert.Equal(t, "DOE, JANE", revs[0].Document.Record.PatientName)
	})

	t.Run("ReturnedDocumentsAreCopies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		saved, err := s.Save(ctx, NewDocument(t, "2510001", "DOE, JANE"))
		require.NoError(t, err)
		require.NotEmpty(t, saved.Derived.ExtensionFundingTotals)

		// WHEN: A caller scribbles over what the store handed back
		saved.Record.Extensions[0].MedevacLocation = "saved"
		revs, err := s.Revisions(ctx, saved.ID)
		require.NoError(t, err)
		revs[0].Document.Record.Extensions[0].MedevacLocation = "revision"
		revs[0].Document.Record.PerDiems[0].Days = 99
		revs[0].Document.Derived.ExtensionFundingTotals[0] = decimal.NewFromInt(-1)
		got, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		got.Record.Extensions[0].MedevacLocation = "get"

		// THEN: Neither the case nor its history changes
		again, err := s.Revisions(ctx, saved.ID)
		require.NoError(t, err)
		first := again[0].Document
		assert.Equal(t, "", first.Record.Extensions[0].MedevacLocation)
		assert.Equal(t, 3, first.Record.PerDiems[0].Days)
		assert.Equal(t, "900", first.Derived.ExtensionFundingTotals[0].String())

		current, err := s.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "", current.Record.Extensions[0].MedevacLocation)
	})

	t.Run("RevisionsMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Revisions(context.Background(), "nope")
		assert.True(t, generic.IsNotFound(err))
	})

	t.Run("SequencePerYearAndCode", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for want := 1; want <= 3; want++ {
			n, err := s.Next(ctx, 25, medevac.AgencyCodeOther)
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}
		n, err := s.Next(ctx, 25, medevac.AgencyCodeMSG)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = s.Next(ctx, 26, medevac.AgencyCodeOther)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("SequenceConcurrentUnique", func(t *testing.T) {
		s := newStore(t)
		const workers = 20

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = map[int]bool{}
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := s.Next(context.Background(), 25, medevac.AgencyCodeMSG)
				if err != nil {
					return
				}
				mu.Lock()
				seen[n] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, workers)
	})
}

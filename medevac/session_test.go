package medevac_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/medevac-engine/medevac"
)

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 14, 30, 0, 0, time.UTC) }
}

func newEditor() *medevac.Editor {
	posts := medevac.NewPostRegistry(medevac.NewPostTable([]medevac.Post{{City: "Nairobi", Region: "AF"}}))
	return medevac.NewEditor(medevac.NewMemorySequence(), posts, fixedClock(2025, time.January, 10))
}

// =============================================================================
// EDITOR
// =============================================================================

func TestEditor_AssignsObligationNumberOnce(t *testing.T) {
	ctx := context.Background()
	ed := newEditor()

	// GIVEN: A fresh case without an agency
	r, d, err := ed.Apply(ctx, medevac.NewCaseRecord(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.ObligationNumber)
	assert.Empty(t, d.ObligationNumber)

	// WHEN: The agency is set
	r, d, err = ed.Apply(ctx, r, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		c.AgencyType = medevac.AgencyMSG
		return c, nil
	})
	require.NoError(t, err)

	// THEN: A number is generated
	assert.Equal(t, "2590001", r.ObligationNumber)
	assert.Equal(t, r.ObligationNumber, d.ObligationNumber)

	// WHEN: The agency changes and an edit tries to clear the number
	r, _, err = ed.Apply(ctx, r, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		c.AgencyType = medevac.AgencyDOS
		c.ObligationNumber = ""
		return c, nil
	})
	require.NoError(t, err)

	// THEN: The original number stands
	assert.Equal(t, "2590001", r.ObligationNumber)
}

func TestEditor_CreateIgnoresCallerObligationNumber(t *testing.T) {
	ctx := context.Background()
	ed := newEditor()

	tests := []struct {
		name   string
		number string
		want   string
	}{
		{"reused number", "2510001", "2510001"},
		{"arbitrary string", "hello", "2510002"},
		{"well-formed but unissued", "2510999", "2510003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: A new record that already carries a number
			r := medevac.NewCaseRecord()
			r.AgencyType = medevac.AgencyDOS
			r.ObligationNumber = tt.number

			// WHEN: Created
			out, d, err := ed.Create(ctx, r)
			require.NoError(t, err)

			// THEN: The number is the next one from the sequence
			assert.Equal(t, tt.want, out.ObligationNumber)
			assert.Equal(t, tt.want, d.ObligationNumber)
		})
	}
}

func TestEditor_CreateWithoutAgencyHasNoNumber(t *testing.T) {
	r := medevac.NewCaseRecord()
	r.ObligationNumber = "2510001"

	out, _, err := newEditor().Create(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, out.ObligationNumber)
}

func TestEditor_RejectedEditKeepsRecord(t *testing.T) {
	ed := newEditor()
	current := completeRecord()

	out, _, err := ed.Apply(context.Background(), current, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		c.PatientName = "changed"
		return c, errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, "DOE, JANE", out.PatientName)
}

func TestEditor_RecomputesWithRegionAndToday(t *testing.T) {
	ed := newEditor()
	r, d, err := ed.Apply(context.Background(), completeRecord(), func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		return medevac.AddExtension(c, medevac.Extension{Airfare: money("75")})
	})
	require.NoError(t, err)

	assert.Equal(t, "AF", d.Region)
	assert.Equal(t, "5 business days", d.CableStatus)
	assertMoney(t, "75", d.TotalExtensionFunding)
	assertMoney(t, "75", r.Extensions[0].ExtensionFundingTotal, "merged record carries extension totals")
	assertMoney(t, "1575", d.TotalObligation)
}

func TestEditor_ContractViolation(t *testing.T) {
	ed := newEditor()
	bad := medevac.NewCaseRecord()
	bad.Extensions = []medevac.Extension{{ExtensionNumber: 2}}

	_, _, err := ed.Finalize(context.Background(), bad)
	assert.True(t, medevac.IsContractViolation(err))
}

// =============================================================================
// POST TABLE
// =============================================================================

func TestPostTable_LookupIsCaseInsensitive(t *testing.T) {
	table := medevac.NewPostTable([]medevac.Post{
		{City: "Nairobi", Country: "Kenya", Region: "AF"},
		{City: "", Region: "ignored"},
		{City: "bangkok", Country: "Thailand", Region: "EAP"},
	})

	assert.Equal(t, 2, table.Len())
	p, ok := table.Lookup("NAIROBI")
	require.True(t, ok)
	assert.Equal(t, "Kenya", p.Country)
	assert.Equal(t, "EAP", table.Region(" Bangkok "))
	assert.Equal(t, "", table.Region("Paris"))

	posts := table.Posts()
	require.Len(t, posts, 2)
	assert.Equal(t, "bangkok", posts[0].City)
}

func TestPostTable_RefreshLeavesOldTableIntact(t *testing.T) {
	old := medevac.NewPostTable([]medevac.Post{{City: "Nairobi", Region: "AF"}})
	next := old.Refresh([]medevac.Post{{City: "Nairobi", Region: "AFR"}, {City: "Lima", Region: "WHA"}})

	assert.Equal(t, "AF", old.Region("Nairobi"))
	assert.Equal(t, 1, old.Len())
	assert.Equal(t, "AFR", next.Region("Nairobi"))
	assert.Equal(t, 2, next.Len())
}

func TestPostTable_NilIsEmpty(t *testing.T) {
	var table *medevac.PostTable
	_, ok := table.Lookup("Nairobi")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Posts())
}

func TestPostRegistry_ConcurrentReplace(t *testing.T) {
	reg := medevac.NewPostRegistry(nil)
	assert.Equal(t, 0, reg.Current().Len())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Replace([]medevac.Post{{City: "Nairobi", Region: "AF"}})
		}()
		go func() {
			defer wg.Done()
			_ = reg.Current().Region("Nairobi")
		}()
	}
	wg.Wait()
	assert.Equal(t, "AF", reg.Current().Region("Nairobi"))
}

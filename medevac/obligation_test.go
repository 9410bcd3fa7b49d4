package medevac_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/medevac-engine/medevac"
)

var obligationPattern = regexp.MustCompile(`^\d{2}(10|90)\d{3}$`)

type failingSequence struct{}

func (failingSequence) Next(context.Context, int, string) (int, error) {
	return 0, errors.New("counter offline")
}

type fixedSequence int

func (f fixedSequence) Next(context.Context, int, string) (int, error) { return int(f), nil }

func TestGenerateObligationNumber_Format(t *testing.T) {
	ctx := context.Background()
	seq := medevac.NewMemorySequence()
	now := date(2025, time.March, 3)

	for _, agency := range []medevac.AgencyType{medevac.AgencyMSG, medevac.AgencyDOS, medevac.AgencySeabee, medevac.AgencyDOSSeabee} {
		r := medevac.CaseRecord{AgencyType: agency}
		num, err := medevac.GenerateObligationNumber(ctx, &r, now, seq)
		require.NoError(t, err)

		assert.Regexp(t, obligationPattern, num)
		assert.Equal(t, "25", num[:2])
		if agency == medevac.AgencyMSG {
			assert.Equal(t, "90", num[2:4])
		} else {
			assert.Equal(t, "10", num[2:4])
		}
	}
}

func TestGenerateObligationNumber_SequencePerAgencyCode(t *testing.T) {
	ctx := context.Background()
	seq := medevac.NewMemorySequence()
	now := date(2025, time.March, 3)

	gen := func(agency medevac.AgencyType) string {
		r := medevac.CaseRecord{AgencyType: agency}
		num, err := medevac.GenerateObligationNumber(ctx, &r, now, seq)
		require.NoError(t, err)
		return num
	}

	assert.Equal(t, "2510001", gen(medevac.AgencyDOS))
	assert.Equal(t, "2590001", gen(medevac.AgencyMSG))
	assert.Equal(t, "2510002", gen(medevac.AgencySeabee))
	assert.Equal(t, "2510003", gen(medevac.AgencyDOSSeabee))
	assert.Equal(t, "2590002", gen(medevac.AgencyMSG))
}

func TestGenerateObligationNumber_NeverOverwrites(t *testing.T) {
	r := medevac.CaseRecord{AgencyType: medevac.AgencyMSG, ObligationNumber: "2490012"}
	assert.False(t, medevac.NeedsObligationNumber(&r))

	_, err := medevac.GenerateObligationNumber(context.Background(), &r, jan(6), medevac.NewMemorySequence())
	assert.ErrorIs(t, err, medevac.ErrObligationNumberExists)
}

func TestGenerateObligationNumber_Errors(t *testing.T) {
	ctx := context.Background()

	r := medevac.CaseRecord{}
	assert.False(t, medevac.NeedsObligationNumber(&r))
	_, err := medevac.GenerateObligationNumber(ctx, &r, jan(6), medevac.NewMemorySequence())
	assert.ErrorIs(t, err, medevac.ErrAgencyRequired)

	r.AgencyType = medevac.AgencyDOS
	_, err = medevac.GenerateObligationNumber(ctx, &r, jan(6), failingSequence{})
	assert.ErrorContains(t, err, "counter offline")

	_, err = medevac.GenerateObligationNumber(ctx, &r, jan(6), fixedSequence(1000))
	assert.ErrorIs(t, err, medevac.ErrInvalidSequence)
	_, err = medevac.GenerateObligationNumber(ctx, &r, jan(6), fixedSequence(0))
	assert.ErrorIs(t, err, medevac.ErrInvalidSequence)
}

func TestFormatObligationNumber(t *testing.T) {
	num, err := medevac.FormatObligationNumber(2025, medevac.AgencyCodeMSG, 7)
	require.NoError(t, err)
	assert.Equal(t, "2590007", num)

	num, err = medevac.FormatObligationNumber(medevac.FiscalYear(date(2003, time.June, 1)), medevac.AgencyCodeOther, 999)
	require.NoError(t, err)
	assert.Equal(t, "0310999", num)
}

func TestMemorySequence_ConcurrentUnique(t *testing.T) {
	seq := medevac.NewMemorySequence()
	const workers = 50

	var wg sync.WaitGroup
	results := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(context.Background(), 25, "10")
			if err == nil {
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int]bool{}
	for n := range results {
		assert.False(t, seen[n], "duplicate %d", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

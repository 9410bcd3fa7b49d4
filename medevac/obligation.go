package medevac

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/medevac-engine/generic"
)

// =============================================================================
// OBLIGATION NUMBER - YY + agency code + 3-digit sequence
// =============================================================================

const (
	AgencyCodeMSG   = "90"
	AgencyCodeOther = "10"

	MaxObligationSequence = 999
)

// SequenceSource hands out obligation sequence values. Values must be unique
// and increasing per (fiscal year, agency code); implementations live in the
// store packages (sqlite, postgres, redis, memory).
type SequenceSource interface {
	Next(ctx context.Context, fiscalYear int, agencyCode string) (int, error)
}

// AgencyCode maps an agency to its obligation-number code.
func AgencyCode(agency AgencyType) string {
	if agency == AgencyMSG {
		return AgencyCodeMSG
	}
	return AgencyCodeOther
}

// FiscalYear is the two-digit year used in obligation numbers. It is the
// calendar year of now.
func FiscalYear(now generic.TimePoint) int {
	return now.Year() % 100
}

// FormatObligationNumber renders the identifier, e.g. "2590007".
func FormatObligationNumber(fiscalYear int, agencyCode string, sequence int) (string, error) {
	if sequence < 1 || sequence > MaxObligationSequence {
		return "", fmt.Errorf("%w: %d", ErrInvalidSequence, sequence)
	}
	return fmt.Sprintf("%02d%s%03d", fiscalYear%100, agencyCode, sequence), nil
}

// NeedsObligationNumber reports whether a number should be generated now:
// only when the agency is set and no number exists yet.
func NeedsObligationNumber(r *CaseRecord) bool {
	return r.ObligationNumber == "" && r.AgencyType != ""
}

// GenerateObligationNumber draws the next sequence value and formats the
// number for the record's agency. It refuses to overwrite an existing number.
func GenerateObligationNumber(ctx context.Context, r *CaseRecord, now generic.TimePoint, seq SequenceSource) (string, error) {
	if r.ObligationNumber != "" {
		return "", ErrObligationNumberExists
	}
	if r.AgencyType == "" {
		return "", ErrAgencyRequired
	}

	fy := FiscalYear(now)
	code := AgencyCode(r.AgencyType)
	n, err := seq.Next(ctx, fy, code)
	if err != nil {
		return "", fmt.Errorf("next obligation sequence for %02d/%s: %w", fy, code, err)
	}
	return FormatObligationNumber(fy, code, n)
}

// =============================================================================
// MEMORY SEQUENCE - Process-local counter (for testing/dev)
// =============================================================================

type sequenceKey struct {
	fiscalYear int
	agencyCode string
}

// MemorySequence is a mutex-guarded in-process SequenceSource.
type MemorySequence struct {
	mu       sync.Mutex
	counters map[sequenceKey]int
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[sequenceKey]int)}
}

func (m *MemorySequence) Next(_ context.Context, fiscalYear int, agencyCode string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := sequenceKey{fiscalYear: fiscalYear, agencyCode: agencyCode}
	m.counters[k]++
	return m.counters[k], nil
}

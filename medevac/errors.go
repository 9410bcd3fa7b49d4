package medevac

import (
	"errors"
	"fmt"
)

// =============================================================================
// CONTRACT VIOLATIONS - Caller bugs, never user input
// =============================================================================

var (
	// ErrContractViolation is the parent of every record-shape error below.
	ErrContractViolation = errors.New("case record contract violation")

	ErrTooManyAmendments      = fmt.Errorf("%w: more than %d amendment", ErrContractViolation, MaxAmendments)
	ErrTooManyExtensions      = fmt.Errorf("%w: more than %d extensions", ErrContractViolation, MaxExtensions)
	ErrExtensionNumbering     = fmt.Errorf("%w: extensions not numbered 1..N", ErrContractViolation)
	ErrInvalidSequence        = fmt.Errorf("%w: obligation sequence out of range", ErrContractViolation)
	ErrObligationNumberExists = errors.New("obligation number already assigned")
)

// =============================================================================
// EDIT ERRORS - Rejected edit operations
// =============================================================================

var (
	ErrExtensionLimit    = errors.New("extension limit reached")
	ErrExtensionNotFound = errors.New("extension not found")
	ErrAmendmentExists   = errors.New("case already has an amendment")
	ErrAmendmentNotFound = errors.New("case has no amendment")
	ErrPerDiemLimit      = errors.New("per-diem entry limit reached")
	ErrPerDiemMinimum    = errors.New("at least one per-diem entry is required")
	ErrPerDiemNotFound   = errors.New("per-diem entry not found")
	ErrAgencyRequired    = errors.New("agency type is required")
)

// ExtensionNumberError reports the first extension whose number is out of place.
type ExtensionNumberError struct {
	Index    int
	Expected int
	Got      int
}

func (e *ExtensionNumberError) Error() string {
	return fmt.Sprintf("extension at position %d has number %d, expected %d", e.Index, e.Got, e.Expected)
}

func (e *ExtensionNumberError) Unwrap() error {
	return ErrExtensionNumbering
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsContractViolation returns true for malformed record shapes.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}

// IsClientError returns true if the error is due to a rejected edit.
func IsClientError(err error) bool {
	return errors.Is(err, ErrExtensionLimit) ||
		errors.Is(err, ErrExtensionNotFound) ||
		errors.Is(err, ErrAmendmentExists) ||
		errors.Is(err, ErrAmendmentNotFound) ||
		errors.Is(err, ErrPerDiemLimit) ||
		errors.Is(err, ErrPerDiemMinimum) ||
		errors.Is(err, ErrPerDiemNotFound) ||
		errors.Is(err, ErrAgencyRequired) ||
		IsContractViolation(err)
}

// CheckContract validates the structural invariants of a record.
func CheckContract(r *CaseRecord) error {
	if len(r.Amendments) > MaxAmendments {
		return ErrTooManyAmendments
	}
	if len(r.Extensions) > MaxExtensions {
		return ErrTooManyExtensions
	}
	for i, ext := range r.Extensions {
		if ext.ExtensionNumber != i+1 {
			return &ExtensionNumberError{Index: i, Expected: i + 1, Got: ext.ExtensionNumber}
		}
	}
	return nil
}

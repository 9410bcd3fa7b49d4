/*
errors.go - Centralized error types for the generic primitives and stores

PURPOSE:
  All storage-level error types in one place for consistency and discoverability.
  Domain packages should wrap these errors with additional context.

ERROR CATEGORIES:
  1. Parse errors - Malformed dates in documents
  2. Store errors - Missing or conflicting documents

USAGE:
    if errors.Is(err, generic.ErrNotFound) {
        writeError(w, http.StatusNotFound, "Case not found", err)
    }

SEE ALSO:
  - medevac/errors.go: Contract violations of the case engine
  - store/sqlite/sqlite.go: Returns these errors
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date string is neither YYYY-MM-DD nor RFC3339.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNotFound is returned when a referenced document doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDocument is returned when a stored or posted document cannot be decoded.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrSequenceUnavailable is returned when a sequence counter cannot be advanced.
	ErrSequenceUnavailable = errors.New("sequence unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing document.
type NotFoundError struct {
	Kind string // "case", "post"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

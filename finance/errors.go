/*
errors.go - Centralized error types for the finance domain

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  The schedule engine itself never returns errors (unknown rules and
  frequencies resolve to documented defaults), so everything here belongs
  to the persistence boundary.

USAGE:
  if errors.Is(err, finance.ErrDuplicateOccurrence) {
      // occurrence already generated for this month; safe to ignore
  }

SEE ALSO:
  - store.go: Interfaces returning these errors
  - finance/store/memory.go, store/sqlite: Implementations
*/
package finance

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateOccurrence is returned when an occurrence already exists for
	// (scheduled payment, month, year). Expected during idempotent
	// regeneration; callers treat it as "already done".
	ErrDuplicateOccurrence = errors.New("occurrence already exists for payment and month")

	// ErrDuplicateCycle is returned when a salary cycle already exists for
	// (profile, month, year).
	ErrDuplicateCycle = errors.New("salary cycle already exists for month")
)

// IsConflict reports whether the error is a uniqueness violation. The
// calling layer maps these to HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateOccurrence) || errors.Is(err, ErrDuplicateCycle)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

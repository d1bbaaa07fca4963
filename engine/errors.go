/*
errors.go - Centralized error types for the reward engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR PHILOSOPHY:
  Business conditions - no matching rule, exhausted caps, excluded
  categories, an unlinked card - are NOT errors. They are zero-point
  RewardResults with descriptive breakdown entries, because callers must
  always be able to present something to an end user.

  Errors are reserved for infrastructure: a store that cannot be reached,
  a record that should exist but does not.

USAGE:
  if engine.IsStorage(err) {
      // store unreachable; cap accounting would be wrong, abort
  }

SEE ALSO:
  - store.go: Interfaces whose implementations return these errors
  - rewards.go: Propagates only storage errors
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCardNotFound is returned when a referenced card doesn't exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrExpenseNotFound is returned when a referenced expense doesn't exist.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrBucketNotFound is returned when a referenced cap bucket doesn't exist.
	ErrBucketNotFound = errors.New("cap bucket not found")

	// ErrDuplicateID is returned when creating a record whose id exists.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrStorage marks infrastructure failures in the record store.
	// Usage-accumulator failures MUST surface as this rather than being
	// swallowed: calculating against phantom zero usage corrupts caps.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// StorageError wraps a store-level failure with the operation that failed.
type StorageError struct {
	Op  string // e.g. "bucket_usage", "append_expense"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return ErrStorage }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsStorage returns true if the error is an infrastructure failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrExpenseNotFound) ||
		errors.Is(err, ErrBucketNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return IsNotFound(err) || errors.Is(err, ErrDuplicateID)
}

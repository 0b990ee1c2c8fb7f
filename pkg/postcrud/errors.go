package postcrud

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNotFound indicates the host has no item (or metadata owner) for an id
	ErrNotFound = errors.New("item not found")

	// ErrHostRejected indicates the host refused an insert, update or metadata write
	ErrHostRejected = errors.New("host rejected request")

	// ErrInvalidState indicates an operation is not valid for the item's current state
	ErrInvalidState = errors.New("invalid item state")

	// ErrFieldNotFound indicates a field was read before it was ever set
	ErrFieldNotFound = errors.New("field not set")
)

// ItemError represents a failed item operation
type ItemError struct {
	ID       int64
	PostType string
	Op       string
	Err      error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s operation %s failed for item %d: %v", e.PostType, e.Op, e.ID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// hostError classifies an error returned by a Host call. Not-found and
// invalid-state errors pass through; anything else also matches ErrHostRejected.
func hostError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrHostRejected) || errors.Is(err, ErrInvalidState) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrHostRejected, err)
}

// Rejected wraps err so that it matches ErrHostRejected. Host adapters use it
// for validation failures.
func Rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrHostRejected, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is a not-found condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

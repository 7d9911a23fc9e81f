package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/invoice-manager/internal/validation"
)

// Sentinel errors surfaced by the services. Handlers translate them to HTTP
// statuses; nothing in this package knows about HTTP.
var (
	// ErrNotFound means the referenced invoice or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSelfDelete means an admin tried to delete their own account.
	// User-facing and non-fatal: the account stays.
	ErrSelfDelete = errors.New("cannot delete own account")
	// ErrSequenceExhausted means every numbering retry hit a conflict.
	// Transient: the caller may simply try again.
	ErrSequenceExhausted = errors.New("invoice number conflict retries exhausted")
)

// ValidationError carries every failing field of a request, not just the
// first one.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NumberingError means the highest stored invoice number could not be parsed.
// This indicates data corruption; the create is aborted rather than risking a
// colliding number.
type NumberingError struct {
	Number string
}

func (e *NumberingError) Error() string {
	return fmt.Sprintf("corrupt invoice number in store: %q", e.Number)
}

package domain

import "errors"

// Business error taxonomy. Services wrap these sentinels with context via
// fmt.Errorf("%w: ...") so callers can classify with errors.Is while keeping
// the message. Storage connectivity failures are never mapped onto these; they
// propagate as repository errors so the boundary can report a retryable
// failure instead of a client-input problem.
var (
	// ErrInvalidInput marks malformed or semantically invalid caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an entity that exists but is not owned by the caller.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks concurrent-state conflicts such as optimistic-lock
	// failures on the same relation.
	ErrConflict = errors.New("conflict")
)

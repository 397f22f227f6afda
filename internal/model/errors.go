package model

import "errors"

// Error kinds shared across the engine. Callers match with errors.Is and
// decide recovery per kind; everything library-scoped that is not one of
// these goes onto the library error log instead.
var (
	// ErrAlreadyExists signals an identity collision on create. Recoverable:
	// the caller merges into the existing record instead.
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation signals malformed input (broken license chain ordering,
	// missing identity fields). Rejected, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrUnresolved signals that no source archive or URL could be located.
	// This is recorded library state, not a failure of the operation.
	ErrUnresolved = errors.New("unresolved")

	// ErrRateLimited signals throttling by an external API. Degrades to a
	// sentinel value, never retried immediately.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnsupported signals an unrecognized export, archive or upload
	// format. Rejected at the boundary, never silently coerced.
	ErrUnsupported = errors.New("unsupported format")
)

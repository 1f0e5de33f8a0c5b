package domain

import "errors"

var (
	// ErrMissingField is returned when a job envelope does not carry a field
	// the processor requires. This is a protocol error, never a business
	// rejection.
	ErrMissingField = errors.New("missing job field")

	// ErrBucketNotFound is returned by lookups for an unknown bucket id.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrValidation is returned when a required domain field is missing or
	// invalid on save.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a write collides with the unique
	// upload.url constraint of another bucket.
	ErrConflict = errors.New("conflicting bucket")

	// ErrUnavailable wraps store or signer failures that are not caused by
	// the request itself.
	ErrUnavailable = errors.New("downstream unavailable")

	// ErrUnknownSigningKey is returned when a sign request names a key the
	// pool did not load. Fatal to the request, not to the process.
	ErrUnknownSigningKey = errors.New("unknown signing key")

	// ErrPoolDraining is returned for sign requests submitted after a drain
	// has started.
	ErrPoolDraining = errors.New("signing pool is draining")
)

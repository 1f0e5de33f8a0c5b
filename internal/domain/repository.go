package domain

import "context"

// BucketRepository persists Bucket documents.
type BucketRepository interface {
	// EnsureIndexes creates the indexes the repository relies on, including
	// the unique sparse index on upload.url.
	EnsureIndexes(ctx context.Context) error

	// Save validates the bucket, stamps the audit fields matching op and
	// jobID, and writes the document. A duplicate upload.url yields
	// ErrConflict, a missing required field ErrValidation.
	Save(ctx context.Context, bucket *Bucket, op JobOperation, jobID string) (*Bucket, error)

	// FindByID loads a bucket, fetching only the projected fields when
	// projection is non-empty. An unknown id yields ErrBucketNotFound.
	FindByID(ctx context.Context, id string, projection []string) (*Bucket, error)
}

package managers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gamaops/storage-service/internal/domain"
)

const bucketCollection = "buckets"

type BucketRepositoryDependencies struct {
	DB     *mongo.Database
	Logger zerolog.Logger
}

type bucketRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
	now        func() time.Time
}

func NewBucketRepository(deps BucketRepositoryDependencies) domain.BucketRepository {
	return &bucketRepository{
		collection: deps.DB.Collection(bucketCollection),
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// EnsureIndexes creates the unique sparse index on upload.url. Uniqueness is
// enforced here rather than pre-checked by callers, so concurrent creates
// cannot race past a lookup.
func (r *bucketRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "upload.url", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	if err != nil {
		return fmt.Errorf("creating upload.url index: %w", err)
	}

	return nil
}

func (r *bucketRepository) Save(ctx context.Context, bucket *domain.Bucket, op domain.JobOperation, jobID string) (*domain.Bucket, error) {
	if err := validateBucket(bucket); err != nil {
		return nil, err
	}

	applyOperationStamp(bucket, op, jobID, r.now().UTC().Truncate(time.Millisecond))

	if _, err := r.collection.InsertOne(ctx, bucket); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: upload.url is already in use", domain.ErrConflict)
		}

		return nil, fmt.Errorf("%w: inserting bucket: %v", domain.ErrUnavailable, err)
	}

	return bucket, nil
}

func (r *bucketRepository) FindByID(ctx context.Context, id string, projection []string) (*domain.Bucket, error) {
	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(projectionDoc(projection))
	}

	var bucket domain.Bucket

	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&bucket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrBucketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: finding bucket %s: %v", domain.ErrUnavailable, id, err)
	}

	return &bucket, nil
}

func projectionDoc(fields []string) bson.D {
	doc := make(bson.D, 0, len(fields))

	for _, field := range fields {
		doc = append(doc, bson.E{Key: field, Value: 1})
	}

	return doc
}

func validateBucket(bucket *domain.Bucket) error {
	switch {
	case bucket == nil:
		return fmt.Errorf("%w: bucket is required", domain.ErrValidation)
	case bucket.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	case bucket.Upload == nil:
		return fmt.Errorf("%w: upload is required", domain.ErrValidation)
	case bucket.MaxSize <= 0:
		return fmt.Errorf("%w: maxSize is required", domain.ErrValidation)
	case bucket.Processor <= 0:
		return fmt.Errorf("%w: processor is required", domain.ErrValidation)
	}

	return nil
}

func applyOperationStamp(bucket *domain.Bucket, op domain.JobOperation, jobID string, now time.Time) {
	switch op {
	case domain.JobOperationCreate:
		bucket.CreatedAt = now
		bucket.CreatedJobID = jobID
	case domain.JobOperationUpdate:
		bucket.UpdatedAt = now
		bucket.UpdatedJobID = jobID
	}
}

// Package processors holds the job workflows of the storage service. Each
// processor is constructed once at startup with its resolved schema handles
// and metric counters, and handles one job per invocation.
package processors

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gamaops/storage-service/internal/codec"
	"github.com/gamaops/storage-service/internal/domain"
	"github.com/gamaops/storage-service/internal/metrics"
)

type CreateBucketProcessorDependencies struct {
	Buckets     domain.BucketRepository
	RequestType codec.Handle[codec.CreateBucketRequest]
	BucketType  codec.Handle[codec.Bucket]
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
}

// CreateBucketProcessor creates a bucket from a CreateBucketRequest job and
// pushes the persisted bucket back on the envelope.
type CreateBucketProcessor struct {
	buckets     domain.BucketRepository
	requestType codec.Handle[codec.CreateBucketRequest]
	bucketType  codec.Handle[codec.Bucket]
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	newID       func() string
}

func NewCreateBucketProcessor(deps CreateBucketProcessorDependencies) *CreateBucketProcessor {
	return &CreateBucketProcessor{
		buckets:     deps.Buckets,
		requestType: deps.RequestType,
		bucketType:  deps.BucketType,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		newID:       uuid.NewString,
	}
}

func (p *CreateBucketProcessor) Process(ctx context.Context, job domain.Job) error {
	p.metrics.StorageCalls.WithLabelValues("createBucket").Inc()

	logger := p.logger.With().Str("jobId", job.ID()).Logger()
	logger.Info().Msg("Received new job")

	fields, err := job.Get("request", true).Del("request").Pull(ctx)
	if err != nil {
		return fmt.Errorf("pulling request: %w", err)
	}

	data, ok := fields["request"]
	if !ok {
		return fmt.Errorf("%w: request", domain.ErrMissingField)
	}

	request, err := p.requestType.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("decoding create bucket request: %w", err)
	}

	logger.Debug().Interface("createBucketRequest", request).Msg("Create bucket request")

	bucket := bucketFromWire(request.Bucket)
	bucket.Normalize()
	bucket.ID = p.newID()

	persisted, err := p.buckets.Save(ctx, bucket, domain.JobOperationCreate, job.ID())
	if err != nil {
		return fmt.Errorf("saving bucket: %w", err)
	}

	logger.Info().Str("bucketId", persisted.ID).Msg("Bucket saved")

	response, err := p.bucketType.Marshal(bucketToWire(persisted))
	if err != nil {
		return fmt.Errorf("encoding bucket: %w", err)
	}

	if err := job.Set("bucket", response).Push(ctx); err != nil {
		return fmt.Errorf("pushing bucket: %w", err)
	}

	return nil
}

package processors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gamaops/storage-service/internal/codec"
	"github.com/gamaops/storage-service/internal/domain"
	"github.com/gamaops/storage-service/internal/metrics"
)

// uploadURLProjection fetches only the fields the grant needs; this workflow
// is high frequency and never materializes the whole bucket.
var uploadURLProjection = []string{"upload", "maxSize", "tags", "acceptedMimeTypes", "processor"}

type CreateUploadURLProcessorDependencies struct {
	Buckets      domain.BucketRepository
	Signer       domain.TokenSigner
	RequestType  codec.Handle[codec.CreateUploadUrlRequest]
	ResponseType codec.Handle[codec.CreateUploadUrlResponse]
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	Issuer       string
}

// CreateUploadURLProcessor issues a signed upload grant against an existing
// bucket, or a {success:false} response when the bucket does not allow
// uploads. The rejection is a normal business outcome, not a job failure.
type CreateUploadURLProcessor struct {
	buckets      domain.BucketRepository
	signer       domain.TokenSigner
	requestType  codec.Handle[codec.CreateUploadUrlRequest]
	responseType codec.Handle[codec.CreateUploadUrlResponse]
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	issuer       string
	newID        func() string
}

func NewCreateUploadURLProcessor(deps CreateUploadURLProcessorDependencies) *CreateUploadURLProcessor {
	return &CreateUploadURLProcessor{
		buckets:      deps.Buckets,
		signer:       deps.Signer,
		requestType:  deps.RequestType,
		responseType: deps.ResponseType,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		issuer:       deps.Issuer,
		newID:        uuid.NewString,
	}
}

func (p *CreateUploadURLProcessor) Process(ctx context.Context, job domain.Job) error {
	p.metrics.StorageCalls.WithLabelValues("createUploadUrl").Inc()

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
		return fmt.Errorf("decoding create upload url request: %w", err)
	}

	logger.Debug().Interface("createUploadUrlRequest", request).Msg("Create upload url request")

	bucket, err := p.buckets.FindByID(ctx, request.BucketID, uploadURLProjection)
	if err != nil && !errors.Is(err, domain.ErrBucketNotFound) {
		return fmt.Errorf("loading bucket: %w", err)
	}

	if bucket == nil || bucket.Upload == nil || bucket.Upload.URL == "" || bucket.Upload.MaxCount == 0 {
		logger.Debug().Str("bucketId", request.BucketID).Msg("Upload rejected due: missing url, or falsy maxCount or invalid bucket")

		return p.pushResponse(ctx, job, &codec.CreateUploadUrlResponse{Success: false})
	}

	uploadID := p.newID()

	audience, err := appendPathSegment(bucket.Upload.URL, uploadID)
	if err != nil {
		return fmt.Errorf("building audience url: %w", err)
	}

	payload := &domain.UploadTokenPayload{
		BucketID:  request.BucketID,
		Processor: bucket.Processor,
		Tags:      bucket.Tags,
		Field:     bucket.Upload.FieldName,
		MaxCount:  bucket.Upload.MaxCount,
	}
	if bucket.MaxSize > 0 {
		maxSize := bucket.MaxSize
		payload.MaxSize = &maxSize
	}
	if len(bucket.AcceptedMimeTypes) > 0 {
		payload.MimeTypes = bucket.AcceptedMimeTypes
	}

	logger.Debug().Interface("uploadTokenPayload", payload).Msg("Upload token payload generated")

	token, err := p.signer.SignJWT(ctx, domain.SignRequest{
		Key:         domain.SigningKeyUploadURL,
		UploadToken: payload,
		Options: domain.SignOptions{
			Issuer:    p.issuer,
			Subject:   request.Subject,
			Audience:  audience,
			TokenID:   uploadID,
			ExpiresIn: time.Duration(bucket.Upload.TokenExpirationSeconds) * time.Second,
		},
	})
	if err != nil {
		return fmt.Errorf("signing upload token: %w", err)
	}

	return p.pushResponse(ctx, job, &codec.CreateUploadUrlResponse{Success: true, UploadToken: token})
}

func (p *CreateUploadURLProcessor) pushResponse(ctx context.Context, job domain.Job, response *codec.CreateUploadUrlResponse) error {
	data, err := p.responseType.Marshal(response)
	if err != nil {
		return fmt.Errorf("encoding create upload url response: %w", err)
	}

	if err := job.Set("createUploadUrlResponse", data).Push(ctx); err != nil {
		return fmt.Errorf("pushing create upload url response: %w", err)
	}

	return nil
}

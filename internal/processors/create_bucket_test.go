package processors

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamaops/storage-service/internal/codec"
	"github.com/gamaops/storage-service/internal/domain"
	"github.com/gamaops/storage-service/internal/metrics"
)

func newCreateBucketProcessor(t *testing.T, buckets domain.BucketRepository) *CreateBucketProcessor {
	t.Helper()

	registry := codec.NewRegistry()

	return NewCreateBucketProcessor(CreateBucketProcessorDependencies{
		Buckets:     buckets,
		RequestType: codec.MustResolve[codec.CreateBucketRequest](registry, "storage.v1.CreateBucketRequest"),
		BucketType:  codec.MustResolve[codec.Bucket](registry, "storage.v1.Bucket"),
		Metrics:     metrics.New(),
		Logger:      zerolog.Nop(),
	})
}

func marshalCreateBucketRequest(t *testing.T, request *codec.CreateBucketRequest) []byte {
	t.Helper()

	registry := codec.NewRegistry()
	requestType := codec.MustResolve[codec.CreateBucketRequest](registry, "storage.v1.CreateBucketRequest")

	data, err := requestType.Marshal(request)
	require.NoError(t, err)

	return data
}

func TestCreateBucketProcessor_Process(t *testing.T) {
	repo := newFakeBucketRepository()
	processor := newCreateBucketProcessor(t, repo)

	request := marshalCreateBucketRequest(t, &codec.CreateBucketRequest{
		Bucket: &codec.Bucket{
			Name: "avatars",
			Upload: &codec.Upload{
				URL:                    "https://u/avatars",
				FieldName:              "file",
				TokenExpirationSeconds: 60,
				MaxCount:               1,
			},
			AcceptedMimeTypes: []string{"image/PNG", " image/jpeg "},
			Tags:              []string{"public"},
			MaxSize:           1048576,
			Processor:         1,
		},
	})

	job := newFakeJob("job-1", map[string][]byte{"request": request})

	err := processor.Process(context.Background(), job)
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	saved := repo.saved[0]

	_, err = uuid.Parse(saved.ID)
	assert.NoError(t, err, "bucket id must be a generated uuid")
	assert.Equal(t, domain.JobOperationCreate, repo.lastOperation)
	assert.Equal(t, "job-1", repo.lastJobID)
	assert.Equal(t, []string{"image/png", "image/jpeg"}, saved.AcceptedMimeTypes)

	// The request field is consumed and removed from the envelope before the
	// result is pushed back.
	assert.Equal(t, []string{"request"}, job.consumed)
	assert.NotContains(t, job.fields, "request")

	require.Equal(t, 1, job.pushes)
	require.Contains(t, job.pushed, "bucket")

	registry := codec.NewRegistry()
	bucketType := codec.MustResolve[codec.Bucket](registry, "storage.v1.Bucket")

	pushed, err := bucketType.Unmarshal(job.pushed["bucket"])
	require.NoError(t, err)

	assert.Equal(t, saved.ID, pushed.BucketID)
	assert.Equal(t, "avatars", pushed.Name)
	require.NotNil(t, pushed.Upload)
	assert.Equal(t, "https://u/avatars", pushed.Upload.URL)
	assert.Equal(t, "file", pushed.Upload.FieldName)
	assert.Equal(t, int64(60), pushed.Upload.TokenExpirationSeconds)
	assert.Equal(t, int64(1), pushed.Upload.MaxCount)
	assert.Equal(t, int64(1048576), pushed.MaxSize)
	assert.Equal(t, int32(1), pushed.Processor)
	assert.Equal(t, "2026-01-12T09:30:00.000Z", pushed.CreatedAt)
	assert.Equal(t, "job-1", pushed.CreatedJobID)
	assert.Empty(t, pushed.UpdatedAt)
}

func TestCreateBucketProcessor_MissingRequest(t *testing.T) {
	repo := newFakeBucketRepository()
	processor := newCreateBucketProcessor(t, repo)

	job := newFakeJob("job-2", nil)

	err := processor.Process(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.Empty(t, repo.saved)
	assert.Zero(t, job.pushes)
}

func TestCreateBucketProcessor_MalformedRequest(t *testing.T) {
	repo := newFakeBucketRepository()
	processor := newCreateBucketProcessor(t, repo)

	job := newFakeJob("job-3", map[string][]byte{"request": {0xff, 0xff}})

	err := processor.Process(context.Background(), job)
	require.Error(t, err)
	assert.Empty(t, repo.saved)
	assert.Zero(t, job.pushes)
}

func TestCreateBucketProcessor_SaveConflict(t *testing.T) {
	repo := newFakeBucketRepository()
	repo.saveErr = domain.ErrConflict
	processor := newCreateBucketProcessor(t, repo)

	request := marshalCreateBucketRequest(t, &codec.CreateBucketRequest{
		Bucket: &codec.Bucket{
			Name:      "avatars",
			Upload:    &codec.Upload{URL: "https://u/avatars", MaxCount: 1},
			MaxSize:   1024,
			Processor: 1,
		},
	})

	job := newFakeJob("job-4", map[string][]byte{"request": request})

	err := processor.Process(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Zero(t, job.pushes)
}

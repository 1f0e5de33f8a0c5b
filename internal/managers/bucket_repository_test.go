package managers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/gamaops/storage-service/internal/domain"
)

func validTestBucket() *domain.Bucket {
	return &domain.Bucket{
		ID:        "bucket-1",
		Name:      "avatars",
		Upload:    &domain.Upload{URL: "https://u/avatars", MaxCount: 1},
		MaxSize:   1048576,
		Processor: 1,
	}
}

func TestValidateBucket(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *domain.Bucket) *domain.Bucket
		wantErr bool
	}{
		{
			name:   "valid bucket",
			mutate: func(b *domain.Bucket) *domain.Bucket { return b },
		},
		{
			name:    "nil bucket",
			mutate:  func(b *domain.Bucket) *domain.Bucket { return nil },
			wantErr: true,
		},
		{
			name: "missing name",
			mutate: func(b *domain.Bucket) *domain.Bucket {
				b.Name = ""
				return b
			},
			wantErr: true,
		},
		{
			name: "missing upload",
			mutate: func(b *domain.Bucket) *domain.Bucket {
				b.Upload = nil
				return b
			},
			wantErr: true,
		},
		{
			name: "zero maxSize",
			mutate: func(b *domain.Bucket) *domain.Bucket {
				b.MaxSize = 0
				return b
			},
			wantErr: true,
		},
		{
			name: "zero processor",
			mutate: func(b *domain.Bucket) *domain.Bucket {
				b.Processor = 0
				return b
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBucket(tt.mutate(validTestBucket()))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestApplyOperationStamp(t *testing.T) {
	now := time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)

	t.Run("create stamps created fields only", func(t *testing.T) {
		bucket := validTestBucket()
		applyOperationStamp(bucket, domain.JobOperationCreate, "job-1", now)

		assert.Equal(t, now, bucket.CreatedAt)
		assert.Equal(t, "job-1", bucket.CreatedJobID)
		assert.True(t, bucket.UpdatedAt.IsZero())
		assert.Empty(t, bucket.UpdatedJobID)
	})

	t.Run("update stamps updated fields only", func(t *testing.T) {
		bucket := validTestBucket()
		bucket.CreatedAt = now.Add(-time.Hour)
		bucket.CreatedJobID = "job-0"

		applyOperationStamp(bucket, domain.JobOperationUpdate, "job-2", now)

		assert.Equal(t, now.Add(-time.Hour), bucket.CreatedAt)
		assert.Equal(t, "job-0", bucket.CreatedJobID)
		assert.Equal(t, now, bucket.UpdatedAt)
		assert.Equal(t, "job-2", bucket.UpdatedJobID)
	})
}

func TestProjectionDoc(t *testing.T) {
	doc := projectionDoc([]string{"upload", "maxSize", "tags"})

	assert.Equal(t, bson.D{
		{Key: "upload", Value: 1},
		{Key: "maxSize", Value: 1},
		{Key: "tags", Value: 1},
	}, doc)
}

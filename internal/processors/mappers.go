package processors

import (
	"net/url"
	"path"
	"time"

	"github.com/gamaops/storage-service/internal/codec"
	"github.com/gamaops/storage-service/internal/domain"
)

func bucketFromWire(m *codec.Bucket) *domain.Bucket {
	if m == nil {
		return &domain.Bucket{}
	}

	bucket := &domain.Bucket{
		ID:                m.BucketID,
		Name:              m.Name,
		AcceptedMimeTypes: m.AcceptedMimeTypes,
		Tags:              m.Tags,
		MaxSize:           m.MaxSize,
		Processor:         m.Processor,
	}

	if m.Upload != nil {
		bucket.Upload = &domain.Upload{
			URL:                    m.Upload.URL,
			FieldName:              m.Upload.FieldName,
			TokenExpirationSeconds: m.Upload.TokenExpirationSeconds,
			MaxCount:               m.Upload.MaxCount,
		}
	}

	return bucket
}

func bucketToWire(bucket *domain.Bucket) *codec.Bucket {
	m := &codec.Bucket{
		BucketID:          bucket.ID,
		Name:              bucket.Name,
		AcceptedMimeTypes: bucket.AcceptedMimeTypes,
		Tags:              bucket.Tags,
		MaxSize:           bucket.MaxSize,
		Processor:         bucket.Processor,
		CreatedAt:         isoTime(bucket.CreatedAt),
		CreatedJobID:      bucket.CreatedJobID,
		UpdatedAt:         isoTime(bucket.UpdatedAt),
		UpdatedJobID:      bucket.UpdatedJobID,
	}

	if bucket.Upload != nil {
		m.Upload = &codec.Upload{
			URL:                    bucket.Upload.URL,
			FieldName:              bucket.Upload.FieldName,
			TokenExpirationSeconds: bucket.Upload.TokenExpirationSeconds,
			MaxCount:               bucket.Upload.MaxCount,
		}
	}

	return m
}

// isoTime renders a timestamp the way the wire schema expects, millisecond
// precision in UTC.
func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// appendPathSegment appends exactly one path segment to a URL.
func appendPathSegment(rawURL, segment string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	u.Path = path.Join(u.Path, segment)

	return u.String(), nil
}

package domain

import (
	"strings"
	"time"
)

// JobOperation identifies which audit fields a persisted write stamps.
type JobOperation string

const (
	JobOperationCreate JobOperation = "CREATE"
	JobOperationUpdate JobOperation = "UPDATE"
)

// Upload holds the upload configuration of a bucket. An empty URL or a zero
// MaxCount disables uploads into the bucket.
type Upload struct {
	URL                    string `bson:"url,omitempty" json:"url,omitempty"`
	FieldName              string `bson:"fieldName,omitempty" json:"fieldName,omitempty"`
	TokenExpirationSeconds int64  `bson:"tokenExpirationSeconds,omitempty" json:"tokenExpirationSeconds,omitempty"`
	MaxCount               int64  `bson:"maxCount,omitempty" json:"maxCount,omitempty"`
}

// Bucket is a named upload destination. The ID is assigned server-side at
// creation and never changes afterwards.
type Bucket struct {
	ID                string    `bson:"_id,omitempty" json:"bucketId,omitempty"`
	Name              string    `bson:"name,omitempty" json:"name,omitempty"`
	Upload            *Upload   `bson:"upload" json:"upload,omitempty"`
	AcceptedMimeTypes []string  `bson:"acceptedMimeTypes,omitempty" json:"acceptedMimeTypes,omitempty"`
	Tags              []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	MaxSize           int64     `bson:"maxSize,omitempty" json:"maxSize,omitempty"`
	Processor         int32     `bson:"processor,omitempty" json:"processor,omitempty"`
	CreatedAt         time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	CreatedJobID      string    `bson:"createdJobId,omitempty" json:"createdJobId,omitempty"`
	UpdatedAt         time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	UpdatedJobID      string    `bson:"updatedJobId,omitempty" json:"updatedJobId,omitempty"`
}

// Normalize trims string fields, lowercases mime types and drops empty
// entries so that empty values never overwrite stored defaults.
func (b *Bucket) Normalize() {
	b.Name = strings.TrimSpace(b.Name)

	b.AcceptedMimeTypes = normalizeSet(b.AcceptedMimeTypes, true)
	b.Tags = normalizeSet(b.Tags, false)

	if b.Upload != nil {
		b.Upload.URL = strings.TrimSpace(b.Upload.URL)
		b.Upload.FieldName = strings.TrimSpace(b.Upload.FieldName)
	}
}

func normalizeSet(values []string, lowercase bool) []string {
	if len(values) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(values))

	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		if lowercase {
			value = strings.ToLower(value)
		}

		normalized = append(normalized, value)
	}

	if len(normalized) == 0 {
		return nil
	}

	return normalized
}

package codec

// Wire message structs of the storage.v1 schema. Timestamps cross the wire
// as ISO-8601 strings; the persisted documents keep native timestamps.

type Upload struct {
	URL                    string
	FieldName              string
	TokenExpirationSeconds int64
	MaxCount               int64
}

type Bucket struct {
	BucketID          string
	Name              string
	Upload            *Upload
	AcceptedMimeTypes []string
	Tags              []string
	MaxSize           int64
	Processor         int32
	CreatedAt         string
	CreatedJobID      string
	UpdatedAt         string
	UpdatedJobID      string
}

type File struct {
	FileID       string
	Name         string
	Path         string
	MimeType     string
	BucketID     string
	UploadURL    string
	Tags         []string
	Size         int64
	Processor    int32
	Status       int32
	CreatedAt    string
	CreatedJobID string
	UpdatedAt    string
	UpdatedJobID string
}

type CreateBucketRequest struct {
	Bucket *Bucket
}

type CreateUploadUrlRequest struct {
	BucketID string
	Subject  string
}

type CreateUploadUrlResponse struct {
	Success     bool
	UploadToken string
}

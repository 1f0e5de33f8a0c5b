package domain

import "time"

// FileStatus tracks where an uploaded file is in its processing lifecycle.
type FileStatus int32

const (
	FileStatusUnspecified FileStatus = iota
	FileStatusPending
	FileStatusUploaded
	FileStatusProcessed
	FileStatusFailed
)

// File references a single upload into a bucket. BucketID is a foreign
// reference, not an ownership edge. No handler in this service writes files
// yet; the model is carried so the upload completion workflow can persist
// them against the same schema.
type File struct {
	ID           string     `bson:"_id,omitempty" json:"fileId,omitempty"`
	Name         string     `bson:"name,omitempty" json:"name,omitempty"`
	Path         string     `bson:"path,omitempty" json:"path,omitempty"`
	MimeType     string     `bson:"mimeType,omitempty" json:"mimeType,omitempty"`
	BucketID     string     `bson:"bucketId,omitempty" json:"bucketId,omitempty"`
	UploadURL    string     `bson:"uploadUrl,omitempty" json:"uploadUrl,omitempty"`
	Tags         []string   `bson:"tags,omitempty" json:"tags,omitempty"`
	Size         int64      `bson:"size,omitempty" json:"size,omitempty"`
	Processor    int32      `bson:"processor,omitempty" json:"processor,omitempty"`
	Status       FileStatus `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	CreatedJobID string     `bson:"createdJobId,omitempty" json:"createdJobId,omitempty"`
	UpdatedAt    time.Time  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	UpdatedJobID string     `bson:"updatedJobId,omitempty" json:"updatedJobId,omitempty"`
}

package domain

import (
	"context"
	"time"
)

// SigningKey names an entry in the signing pool's private key table.
type SigningKey string

const (
	// SigningKeyUploadURL signs upload grant tokens.
	SigningKeyUploadURL SigningKey = "UPLOAD_URL"
)

// UploadTokenPayload is the claim set of an upload grant. MaxSize and
// MimeTypes are optional: a nil MaxSize means the bucket declares no size
// limit and an empty MimeTypes means uploads are unrestricted by type.
type UploadTokenPayload struct {
	BucketID  string
	Processor int32
	Tags      []string
	Field     string
	MaxCount  int64
	MaxSize   *int64
	MimeTypes []string
}

// SignOptions carries the registered claims of a token. All values are
// supplied by the caller, the signer defaults none of them.
type SignOptions struct {
	Issuer   string
	Subject  string
	Audience string
	TokenID  string

	// ExpiresIn is how long the token stays valid after issue. Zero means
	// the token is expired the moment it is issued.
	ExpiresIn time.Duration
}

// SignRequest is a tagged union over the known signing keys. Exactly one
// payload field matching Key must be set.
type SignRequest struct {
	Key     SigningKey
	Options SignOptions

	// UploadToken is the payload when Key is SigningKeyUploadURL.
	UploadToken *UploadTokenPayload
}

// TokenSigner produces signed tokens on an execution context isolated from
// the job-handling path.
type TokenSigner interface {
	SignJWT(ctx context.Context, request SignRequest) (string, error)
}

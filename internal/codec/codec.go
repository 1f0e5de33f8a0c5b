// Package codec maps the storage.v1 wire messages to in-process request and
// response structs. Message types are resolved once at startup by their
// fully-qualified name and the resolved handles are reused for every call.
package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned by lookups for a type name the registry
	// does not carry.
	ErrUnknownType = errors.New("unknown message type")

	// ErrSchemaMismatch is returned when bytes cannot be decoded as the
	// requested message type or a value cannot be encoded by it.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Codec encodes and decodes one wire message type.
type Codec interface {
	FullName() string
	Marshal(message any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

type messageCodec[T any] struct {
	fullName  string
	marshal   func(*T) []byte
	unmarshal func([]byte) (*T, error)
}

func (c *messageCodec[T]) FullName() string {
	return c.fullName
}

func (c *messageCodec[T]) Marshal(message any) ([]byte, error) {
	m, ok := message.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot encode %T", ErrSchemaMismatch, c.fullName, message)
	}

	return c.marshal(m), nil
}

func (c *messageCodec[T]) Unmarshal(data []byte) (any, error) {
	return c.unmarshal(data)
}

// Registry holds the compiled schema of the storage.v1 package.
type Registry struct {
	types map[string]Codec
}

// NewRegistry builds the registry with every storage.v1 message registered.
func NewRegistry() *Registry {
	r := &Registry{types: map[string]Codec{}}

	register(r, &messageCodec[Upload]{
		fullName:  "storage.v1.Upload",
		marshal:   marshalUpload,
		unmarshal: unmarshalUpload,
	})
	register(r, &messageCodec[Bucket]{
		fullName:  "storage.v1.Bucket",
		marshal:   marshalBucket,
		unmarshal: unmarshalBucket,
	})
	register(r, &messageCodec[File]{
		fullName:  "storage.v1.File",
		marshal:   marshalFile,
		unmarshal: unmarshalFile,
	})
	register(r, &messageCodec[CreateBucketRequest]{
		fullName:  "storage.v1.CreateBucketRequest",
		marshal:   marshalCreateBucketRequest,
		unmarshal: unmarshalCreateBucketRequest,
	})
	register(r, &messageCodec[CreateUploadUrlRequest]{
		fullName:  "storage.v1.CreateUploadUrlRequest",
		marshal:   marshalCreateUploadUrlRequest,
		unmarshal: unmarshalCreateUploadUrlRequest,
	})
	register(r, &messageCodec[CreateUploadUrlResponse]{
		fullName:  "storage.v1.CreateUploadUrlResponse",
		marshal:   marshalCreateUploadUrlResponse,
		unmarshal: unmarshalCreateUploadUrlResponse,
	})

	return r
}

func register(r *Registry, codec Codec) {
	r.types[codec.FullName()] = codec
}

// Lookup resolves a message type by its fully-qualified name.
func (r *Registry) Lookup(fullName string) (Codec, error) {
	codec, ok := r.types[fullName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, fullName)
	}

	return codec, nil
}

// Handle is a typed view over a resolved message codec.
type Handle[T any] struct {
	codec *messageCodec[T]
}

// Resolve looks up fullName and binds it to the message struct T.
func Resolve[T any](r *Registry, fullName string) (Handle[T], error) {
	codec, err := r.Lookup(fullName)
	if err != nil {
		return Handle[T]{}, err
	}

	typed, ok := codec.(*messageCodec[T])
	if !ok {
		return Handle[T]{}, fmt.Errorf("%w: %s does not decode to %T", ErrSchemaMismatch, fullName, new(T))
	}

	return Handle[T]{codec: typed}, nil
}

// MustResolve is Resolve for startup wiring where a failed resolution is a
// programming error.
func MustResolve[T any](r *Registry, fullName string) Handle[T] {
	handle, err := Resolve[T](r, fullName)
	if err != nil {
		panic(err)
	}

	return handle
}

func (h Handle[T]) FullName() string {
	return h.codec.fullName
}

func (h Handle[T]) Marshal(message *T) ([]byte, error) {
	return h.codec.marshal(message), nil
}

func (h Handle[T]) Unmarshal(data []byte) (*T, error) {
	return h.codec.unmarshal(data)
}

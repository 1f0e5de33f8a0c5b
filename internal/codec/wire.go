package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the storage.v1 schema.
const (
	uploadFieldURL                    = 1
	uploadFieldFieldName              = 2
	uploadFieldTokenExpirationSeconds = 3
	uploadFieldMaxCount               = 4

	bucketFieldBucketID          = 1
	bucketFieldName              = 2
	bucketFieldUpload            = 3
	bucketFieldAcceptedMimeTypes = 4
	bucketFieldTags              = 5
	bucketFieldMaxSize           = 6
	bucketFieldProcessor         = 7
	bucketFieldCreatedAt         = 8
	bucketFieldCreatedJobID      = 9
	bucketFieldUpdatedAt         = 10
	bucketFieldUpdatedJobID      = 11

	fileFieldFileID       = 1
	fileFieldName         = 2
	fileFieldPath         = 3
	fileFieldMimeType     = 4
	fileFieldBucketID     = 5
	fileFieldUploadURL    = 6
	fileFieldTags         = 7
	fileFieldSize         = 8
	fileFieldProcessor    = 9
	fileFieldStatus       = 10
	fileFieldCreatedAt    = 11
	fileFieldCreatedJobID = 12
	fileFieldUpdatedAt    = 13
	fileFieldUpdatedJobID = 14

	createBucketRequestFieldBucket = 1

	createUploadUrlRequestFieldBucketID = 1
	createUploadUrlRequestFieldSubject  = 2

	createUploadUrlResponseFieldSuccess     = 1
	createUploadUrlResponseFieldUploadToken = 2
)

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendString(b, v)
}

func appendRepeatedStringField(b []byte, num protowire.Number, values []string) []byte {
	for _, v := range values {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}

	return b
}

func appendVarintField(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, uint64(v))
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, 1)
}

// appendMessageField emits the field even when the nested message is empty,
// so that sub-document presence round-trips.
func appendMessageField(b []byte, num protowire.Number, message []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, message)
}

func wireError(n int) error {
	return fmt.Errorf("%w: %v", ErrSchemaMismatch, protowire.ParseError(n))
}

func consumeString(data []byte, typ protowire.Type) (string, int, error) {
	if typ != protowire.BytesType {
		return "", 0, fmt.Errorf("%w: unexpected wire type %d for string field", ErrSchemaMismatch, typ)
	}

	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return "", 0, wireError(n)
	}

	return string(v), n, nil
}

func consumeMessage(data []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: unexpected wire type %d for message field", ErrSchemaMismatch, typ)
	}

	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, wireError(n)
	}

	return v, n, nil
}

func consumeVarint(data []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("%w: unexpected wire type %d for varint field", ErrSchemaMismatch, typ)
	}

	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, wireError(n)
	}

	return v, n, nil
}

func skipField(data []byte, num protowire.Number, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return 0, wireError(n)
	}

	return n, nil
}

func marshalUpload(m *Upload) []byte {
	var b []byte

	b = appendStringField(b, uploadFieldURL, m.URL)
	b = appendStringField(b, uploadFieldFieldName, m.FieldName)
	b = appendVarintField(b, uploadFieldTokenExpirationSeconds, m.TokenExpirationSeconds)
	b = appendVarintField(b, uploadFieldMaxCount, m.MaxCount)

	return b
}

func unmarshalUpload(data []byte) (*Upload, error) {
	m := &Upload{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, wireError(n)
		}
		data = data[n:]

		var err error

		switch num {
		case uploadFieldURL:
			m.URL, n, err = consumeString(data, typ)
		case uploadFieldFieldName:
			m.FieldName, n, err = consumeString(data, typ)
		case uploadFieldTokenExpirationSeconds:
			var v uint64
			v, n, err = consumeVarint(data, typ)
			m.TokenExpirationSeconds = int64(v)
		case uploadFieldMaxCount:
			var v uint64
			v, n, err = consumeVarint(data, typ)
			m.MaxCount = int64(v)
		default:
			n, err = skipField(data, num, typ)
		}

		if err != nil {
			return nil, err
		}
		data = data[n:]
	}

	return m, nil
}

func marshalBucket(m *Bucket) []byte {
	var b []byte

	b = appendStringField(b, bucketFieldBucketID, m.BucketID)
	b = appendStringField(b, bucketFieldName, m.Name)
	if m.Upload != nil {
		b = appendMessageField(b, bucketFieldUpload, marshalUpload(m.Upload))
	}
	b = appendRepeatedStringField(b, bucketFieldAcceptedMimeTypes, m.AcceptedMimeTypes)
	b = appendRepeatedStringField(b, bucketFieldTags, m.Tags)
	b = appendVarintField(b, bucketFieldMaxSize, m.MaxSize)
	b = appendVarintField(b, bucketFieldProcessor, int64(m.Processor))
	b = appendStringField(b, bucketFieldCreatedAt, m.CreatedAt)
	b = appendStringField(b, bucketFieldCreatedJobID, m.CreatedJobID)
	b = appendStringField(b, bucketFieldUpdatedAt, m.UpdatedAt)
	b = appendStringField(b, bucketFieldUpdatedJobID, m.UpdatedJobID)

	return b
}

func unmarshalBucket(data []byte) (*Bucket, error) {
	m := &Bucket{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, wireError(n)
		}
		data = data[n:]

		var err error

		switch num {
		case bucketFieldBucketID:
			m.BucketID, n, err = consumeString(data, typ)
		case bucketFieldName:
			m.Name, n, err = consumeString(data, typ)
		case bucketFieldUpload:
			var raw []byte
			raw, n, err = consumeMessage(data, typ)
			if err == nil {
				m.Upload, err = unmarshalUpload(raw)
			}
		case bucketFieldAcceptedMimeTypes:
			var v string
			v, n, err = consumeString(data, typ)
			m.AcceptedMimeTypes = append(m.AcceptedMimeTypes, v)
		case bucketFieldTags:
			var v string
			v, n, err = consumeString(data, typ)
			m.Tags = append(m.Tags, v)
		case bucketFieldMaxSize:
			var v uint64
			v, n, err = consumeVarint(data, typ)
			m.MaxSize = int64(v)
		case bucketFieldProcessor:
			var v uint64
			v, n, err = consumeVarint(data, typ)
			m.Processor = int32(v)
		case bucketFieldCreatedAt:
			m.CreatedAt, n, err = consumeString(data, typ)
		case bucketFieldCreatedJobID:
			m.CreatedJobID, n, err = consumeString(data, typ)
		case bucketFieldUpdatedAt:
			m.UpdatedAt, n, err = consumeString(data, typ)
		case bucketFieldUpdatedJobID:
			m.UpdatedJobID, n, err = consumeString(data, typ)
		default:
			n, err = skipField(data, num, typ)
		}

		if err != nil {
			return nil, err
		}
		data = data[n:]
	}

	return m, nil
}

func marshalFile(m *File) []byte {
	var b []byte

	b = appendStringField(b, fileFieldFileID, m.FileID)
	b = appendStringField(b, fileFieldName, m.Name)
	b = appendStringField(b, fileFieldPath, m.Path)
	b = appendStringField(b, fileFieldMimeType, m.MimeType)
	b = appendStringField(b, fileFieldBucketID, m.BucketID)
	b = appendStringField(b, fileFieldUploadURL, m.UploadURL)
	b = appendRepeatedStringField(b, fileFieldTags, m.Tags)
	b = appendVarintField(b, fileFieldSize, m.Size)
	b = appendVarintField(b, fileFieldProcessor, int64(m.Processor))
	b = appendVarintField(b, fileFieldStatus, int64(m.Status))
	b = appendStringField(b, fileFieldCreatedAt, m.CreatedAt)
	b = appendStringField(b, fileFieldCreatedJobID, m.CreatedJobID)
	b = appendStringField(b, fileFieldUpdatedAt, m.UpdatedAt)
	b = appendStringField(b, fileFieldUpdatedJobID, m.UpdatedJobID)

	return b
}

func unmarshalFile(data []byte) (*File, error) {
	m := &File{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, wireError(n)
		}
		data = data[n:]

		var err error

		switch num {
		case fileFieldFileID:
			m.FileID, n, err = consumeString(data, typ)
		case fileFieldName:
			m.Name, n, err = consumeString(data, typ)
		case fileFieldPath:
			m.Path, n, err = consumeString(data, typ)
		case fileFieldMimeType:
			m.MimeType, n, err = consumeString(data, typ)
		case fileFieldBucketID:
			m.BucketID, n, err = consumeString(data, typ)
		case fileFieldUploadURL:
			m.UploadURL, n, err = consumeString(data, typ)
		case fileFieldTags:
			var v string
			v, n, err = consumeString(data, typ)
			m.Tags = append(m.Tags, v)
		case fileFieldSize:
			var v uint64
			v, n, err = consumeVarint(data, typ)
			m.Size = int64(v)
		case fileFieldProcessor:
			var v uint64
			v, n, err = consumeVarint(data, typ)
			m.Processor = int32(v)
		case fileFieldStatus:
			var v uint64
			v, n, err = consumeVarint(data, typ)
			m.Status = int32(v)
		case fileFieldCreatedAt:
			m.CreatedAt, n, err = consumeString(data, typ)
		case fileFieldCreatedJobID:
			m.CreatedJobID, n, err = consumeString(data, typ)
		case fileFieldUpdatedAt:
			m.UpdatedAt, n, err = consumeString(data, typ)
		case fileFieldUpdatedJobID:
			m.UpdatedJobID, n, err = consumeString(data, typ)
		default:
			n, err = skipField(data, num, typ)
		}

		if err != nil {
			return nil, err
		}
		data = data[n:]
	}

	return m, nil
}

func marshalCreateBucketRequest(m *CreateBucketRequest) []byte {
	var b []byte

	if m.Bucket != nil {
		b = appendMessageField(b, createBucketRequestFieldBucket, marshalBucket(m.Bucket))
	}

	return b
}

func unmarshalCreateBucketRequest(data []byte) (*CreateBucketRequest, error) {
	m := &CreateBucketRequest{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, wireError(n)
		}
		data = data[n:]

		var err error

		switch num {
		case createBucketRequestFieldBucket:
			var raw []byte
			raw, n, err = consumeMessage(data, typ)
			if err == nil {
				m.Bucket, err = unmarshalBucket(raw)
			}
		default:
			n, err = skipField(data, num, typ)
		}

		if err != nil {
			return nil, err
		}
		data = data[n:]
	}

	return m, nil
}

func marshalCreateUploadUrlRequest(m *CreateUploadUrlRequest) []byte {
	var b []byte

	b = appendStringField(b, createUploadUrlRequestFieldBucketID, m.BucketID)
	b = appendStringField(b, createUploadUrlRequestFieldSubject, m.Subject)

	return b
}

func unmarshalCreateUploadUrlRequest(data []byte) (*CreateUploadUrlRequest, error) {
	m := &CreateUploadUrlRequest{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, wireError(n)
		}
		data = data[n:]

		var err error

		switch num {
		case createUploadUrlRequestFieldBucketID:
			m.BucketID, n, err = consumeString(data, typ)
		case createUploadUrlRequestFieldSubject:
			m.Subject, n, err = consumeString(data, typ)
		default:
			n, err = skipField(data, num, typ)
		}

		if err != nil {
			return nil, err
		}
		data = data[n:]
	}

	return m, nil
}

func marshalCreateUploadUrlResponse(m *CreateUploadUrlResponse) []byte {
	var b []byte

	b = appendBoolField(b, createUploadUrlResponseFieldSuccess, m.Success)
	b = appendStringField(b, createUploadUrlResponseFieldUploadToken, m.UploadToken)

	return b
}

func unmarshalCreateUploadUrlResponse(data []byte) (*CreateUploadUrlResponse, error) {
	m := &CreateUploadUrlResponse{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, wireError(n)
		}
		data = data[n:]

		var err error

		switch num {
		case createUploadUrlResponseFieldSuccess:
			var v uint64
			v, n, err = consumeVarint(data, typ)
			m.Success = v != 0
		case createUploadUrlResponseFieldUploadToken:
			m.UploadToken, n, err = consumeString(data, typ)
		default:
			n, err = skipField(data, num, typ)
		}

		if err != nil {
			return nil, err
		}
		data = data[n:]
	}

	return m, nil
}

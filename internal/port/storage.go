package port

import (
	"context"
	"io"
)

// PutObjectInput encapsulates the parameters needed to store an object.
type PutObjectInput struct {
	Bucket             string
	Key                string
	Body               io.Reader
	ContentType        string
	ContentDisposition string
	Size               int64
}

// PutObjectOutput contains the result of a successful put.
type PutObjectOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts cloud object storage operations.
type ObjectStorage interface {
	// HeadObject reports whether key exists. A missing key is (false, nil).
	HeadObject(ctx context.Context, bucket, key string) (bool, error)
	PutObject(ctx context.Context, input PutObjectInput) (*PutObjectOutput, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	// HeadBucket checks that the bucket is reachable with the configured credentials.
	HeadBucket(ctx context.Context, bucket string) error
}

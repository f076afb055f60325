package storage

import (
	"context"
	"fmt"
	"io"
)

// ObjectStore is the content bucket audio artifacts are written to.
type ObjectStore interface {
	// Upload writes the object and returns its public URL.
	Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error)
	// DeleteByURL removes the object a previously issued public URL points at.
	// Failures are logged, never returned.
	DeleteByURL(ctx context.Context, bucket, url string)
	PublicURL(bucket, key string) string
}

// WriteError is a failed upload. The store either holds the whole object or
// nothing.
type WriteError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("upload %s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

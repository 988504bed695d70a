package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when no blob exists under the requested key.
var ErrObjectNotFound = errors.New("object not found")

// Object is a blob read back from the store.
type Object struct {
	Data        []byte
	ContentType string
	Size        int64
}

// ObjectStore is the narrow port the coordinators consume for binary content.
// Production uses an S3-compatible backend; tests use the in-memory fake.
// Coordinators must never reference a concrete implementation.
type ObjectStore interface {
	// Put writes data under key with the given content type and
	// user-defined object metadata.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error

	// Get reads the blob stored under key.
	Get(ctx context.Context, key string) (Object, error)

	// Delete removes the blob stored under key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// PresignedGetURL returns a time-limited read URL for key. disposition
	// is sent back as the Content-Disposition response header.
	PresignedGetURL(ctx context.Context, key string, disposition string, expiry time.Duration) (string, error)
}

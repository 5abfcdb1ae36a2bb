package object

import (
	"context"
	"io"
	"time"
)

// ObjectStore defines the contract for saving and retrieving document bytes.
// Storage keys carry a backend scheme prefix ("local/" or "s3/"); callers
// treat them as opaque handles and never branch on the backend otherwise.
type ObjectStore interface {
	Save(ctx context.Context, documentID string, version int, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}

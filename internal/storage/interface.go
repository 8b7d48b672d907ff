package storage

import (
	"context"
	"io"
	"time"
)

// Storage holds deposit proof documents. The investor uploads straight to
// the backend through a presigned URL; the API only records the key.
type Storage interface {
	// GeneratePresignedUploadURL returns a URL accepting one PUT of contentType
	// to key until expiresIn elapses.
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, expiresIn time.Duration) (string, error)

	GeneratePresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// FileExists reports whether key was uploaded, with its size
	FileExists(ctx context.Context, key string) (exists bool, size int64, err error)

	DeleteFile(ctx context.Context, key string) error
}

// LocalFiles is implemented by backends that the server itself must stream
// uploads into and out of (mock storage).
type LocalFiles interface {
	SaveFile(key string, reader io.Reader) error
	ReadFile(key string) (io.ReadCloser, error)
}

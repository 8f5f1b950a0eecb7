package artifact

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrStorage indicates an artifact could not be written or read by the backing store.
	ErrStorage = errors.New("storage error")

	// ErrInvalidKey indicates a storage key that escapes the store root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Artifact describes a stored file.
type Artifact struct {
	Key       string
	SizeBytes int64
	MimeType  string
}

// Object is a listing entry used by maintenance jobs.
type Object struct {
	Key        string
	SizeBytes  int64
	ModifiedAt time.Time
}

// Store persists uploaded files under generated names and resolves them back to URLs.
type Store interface {
	// Save writes r under a freshly generated resume name derived from originalFilename.
	Save(ctx context.Context, originalFilename string, r io.Reader) (Artifact, error)
	// SaveWithKey writes r at a caller-chosen key, replacing any previous content.
	SaveWithKey(ctx context.Context, key string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	URL(ctx context.Context, key string) (string, error)
}

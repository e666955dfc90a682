package archive

import (
	"context"
	"io"
	"time"
)

// StorageDriver is the blob store dossiers are written to.
type StorageDriver interface {
	// Save writes the content under key, replacing any previous object.
	Save(ctx context.Context, key string, body io.Reader, contentType string) error

	// Get streams an object back with its content type. Missing keys fail with
	// an error wrapping sentinel.ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GenerateURL returns a link to the object, valid for at least expires.
	GenerateURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

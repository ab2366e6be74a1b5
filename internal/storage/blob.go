package storage

import (
	"context"
	"io"
)

// BlobStore persists attachment bytes addressed by opaque keys. Metadata
// lives in Postgres; the store only ever sees key and bytes.
type BlobStore interface {
	// Save writes the blob and returns the number of bytes stored.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	// Open returns a reader over the blob. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

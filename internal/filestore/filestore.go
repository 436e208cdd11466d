// Package filestore defines the blob backend used for observation photos.
package filestore

import (
	"context"
	"io"
)

// FileStore keeps opaque binary blobs under freshly generated ids. Get and
// Delete wrap domain.ErrNotFound for unknown ids.
type FileStore interface {
	Put(ctx context.Context, mimeType string, r io.Reader) (id string, err error)
	Get(ctx context.Context, id string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

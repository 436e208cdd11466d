// Package cached keeps recently read small blobs in memory in front of any
// filestore backend.
package cached

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vbonduro/plantcare/internal/filestore"
)

// DefaultMaxBlobBytes is the largest blob kept in memory.
const DefaultMaxBlobBytes = 1 << 20

type entry struct {
	data     []byte
	mimeType string
}

type CachedFileStore struct {
	backend  filestore.FileStore
	cache    *lru.Cache[string, entry]
	maxBytes int
	logger   *slog.Logger
}

// New wraps backend with an LRU of at most size blobs, each no larger than
// maxBytes. A non-positive maxBytes uses DefaultMaxBlobBytes.
func New(backend filestore.FileStore, size, maxBytes int, logger *slog.Logger) (*CachedFileStore, error) {
	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create file cache: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBlobBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFileStore{backend: backend, cache: cache, maxBytes: maxBytes, logger: logger}, nil
}

func (s *CachedFileStore) Put(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	id, err := s.backend.Put(ctx, mimeType, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	s.remember(id, data, mimeType)
	return id, nil
}

func (s *CachedFileStore) Get(ctx context.Context, id string) (io.ReadCloser, string, error) {
	if e, ok := s.cache.Get(id); ok {
		return io.NopCloser(bytes.NewReader(e.data)), e.mimeType, nil
	}

	rc, mimeType, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			s.logger.Error("failed to close file", "file_id", id, "error", err)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	s.remember(id, data, mimeType)
	return io.NopCloser(bytes.NewReader(data)), mimeType, nil
}

func (s *CachedFileStore) Delete(ctx context.Context, id string) error {
	s.cache.Remove(id)
	return s.backend.Delete(ctx, id)
}

func (s *CachedFileStore) List(ctx context.Context) ([]string, error) {
	return s.backend.List(ctx)
}

func (s *CachedFileStore) Len() int {
	return s.cache.Len()
}

func (s *CachedFileStore) remember(id string, data []byte, mimeType string) {
	if len(data) > s.maxBytes {
		s.logger.Debug("file too large to cache", "file_id", id, "size", humanize.Bytes(uint64(len(data))))
		return
	}
	s.cache.Add(id, entry{data: data, mimeType: mimeType})
}

package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/vbonduro/plantcare/internal/domain"
)

// LocalFileStore writes each blob to its own file under basePath. The file
// extension carries the MIME type, so ids look like "file-<uuid>.jpg".
type LocalFileStore struct {
	basePath string
	logger   *slog.Logger
}

func NewLocalFileStore(basePath string, logger *slog.Logger) (*LocalFileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create file directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalFileStore{basePath: basePath, logger: logger}, nil
}

func (s *LocalFileStore) Put(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	id := domain.NewFileID() + mimeTypeToExt(mimeType)
	filePath := filepath.Join(s.basePath, id)

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		if cerr := f.Close(); cerr != nil {
			s.logger.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			s.logger.Error("failed to remove file after write error", "error", rerr)
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			s.logger.Error("failed to remove file after close error", "error", rerr)
		}
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	s.logger.Debug("file stored", "file_id", id, "size", humanize.Bytes(uint64(n)))
	return id, nil
}

func (s *LocalFileStore) Get(ctx context.Context, id string) (io.ReadCloser, string, error) {
	filePath, err := s.safeJoin(id)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, extToMimeType(filePath), nil
}

func (s *LocalFileStore) Delete(ctx context.Context, id string) error {
	filePath, err := s.safeJoin(id)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalFileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "file-") {
			continue
		}
		ids = append(ids, e.Name())
	}
	return ids, nil
}

// safeJoin resolves id relative to basePath and rejects directory traversal.
func (s *LocalFileStore) safeJoin(id string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, id))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt: %w", domain.ErrInvalidInput)
	}
	return absPath, nil
}

func mimeTypeToExt(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".bin"
	}
}

func extToMimeType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}

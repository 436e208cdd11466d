package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/vbonduro/plantcare/internal/domain"
)

// FileStore keeps blobs in the files table. It satisfies filestore.FileStore.
type FileStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewFileStore(db *sql.DB, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{db: db, logger: logger}
}

func (s *FileStore) Put(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	id := domain.NewFileID()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO files (id, mime_type, size, data) VALUES (?, ?, ?, ?)
	`, id, mimeType, len(data), data)
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	s.logger.Debug("file stored", "file_id", id, "mime_type", mimeType, "size", humanize.Bytes(uint64(len(data))))
	return id, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (io.ReadCloser, string, error) {
	var (
		mimeType string
		data     []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT mime_type, data FROM files WHERE id = ?
	`, id).Scan(&mimeType, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), mimeType, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM files ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", "error", err)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan file id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return ids, nil
}

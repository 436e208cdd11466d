// Package repository is the keyed store of plant records and their photo
// blobs. Defaults are applied on every read and write and the cached next-due
// dates are refreshed before a plant is written.
package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vbonduro/plantcare/internal/domain"
	"github.com/vbonduro/plantcare/internal/filestore"
	"github.com/vbonduro/plantcare/internal/schedule"
)

type plantStore interface {
	Put(ctx context.Context, p *domain.Plant) error
	PutAll(ctx context.Context, plants []*domain.Plant) error
	Get(ctx context.Context, id string) (*domain.Plant, error)
	List(ctx context.Context) ([]*domain.Plant, error)
	Delete(ctx context.Context, id string) error
}

type settingsSource interface {
	Load(ctx context.Context) (domain.Settings, error)
}

type Repository struct {
	plants   plantStore
	files    filestore.FileStore
	settings settingsSource
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Repository)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func New(plants plantStore, files filestore.FileStore, settings settingsSource, logger *slog.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{
		plants:   plants,
		files:    files,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Now() time.Time {
	return r.now()
}

// Put upserts p with replacement semantics. p is normalized in place and its
// next-due caches are recomputed.
func (r *Repository) Put(ctx context.Context, p *domain.Plant) error {
	if err := r.prepare(ctx, p); err != nil {
		return err
	}
	if err := r.plants.Put(ctx, p); err != nil {
		return err
	}
	r.logger.Debug("plant stored", "plant_id", p.ID, "next_due", p.NextDue)
	return nil
}

// PutAll writes every plant in one transaction.
func (r *Repository) PutAll(ctx context.Context, plants []*domain.Plant) error {
	settings, err := r.settings.Load(ctx)
	if err != nil {
		return err
	}
	now := r.now()
	for _, p := range plants {
		if p.ID == "" {
			return fmt.Errorf("failed to put plant %q: empty id: %w", p.Name, domain.ErrInvalidInput)
		}
		p.Normalize(now)
		schedule.Refresh(p, settings, now)
	}
	return r.plants.PutAll(ctx, plants)
}

func (r *Repository) prepare(ctx context.Context, p *domain.Plant) error {
	if p.ID == "" {
		return fmt.Errorf("failed to put plant %q: empty id: %w", p.Name, domain.ErrInvalidInput)
	}
	settings, err := r.settings.Load(ctx)
	if err != nil {
		return err
	}
	now := r.now()
	p.Normalize(now)
	schedule.Refresh(p, settings, now)
	return nil
}

// Get returns the plant or an error wrapping domain.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Plant, error) {
	p, err := r.plants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("plant %s: %w", id, domain.ErrNotFound)
	}
	settings, err := r.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now()
	p.Normalize(now)
	schedule.Refresh(p, settings, now)
	return p, nil
}

// All returns every plant in no particular order.
func (r *Repository) All(ctx context.Context) ([]*domain.Plant, error) {
	plants, err := r.plants.List(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := r.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now()
	for _, p := range plants {
		p.Normalize(now)
		schedule.Refresh(p, settings, now)
	}
	return plants, nil
}

// Delete removes the plant record only. Blobs it referenced stay in the file
// store until PruneOrphanFiles runs.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.plants.Delete(ctx, id)
}

// DeleteCascade removes the plant and then every blob it referenced. Blob
// deletion failures are logged and do not resurrect the plant.
func (r *Repository) DeleteCascade(ctx context.Context, id string) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.plants.Delete(ctx, id); err != nil {
		return err
	}
	for _, fileID := range p.FileIDs() {
		if err := r.DeleteFile(ctx, fileID); err != nil {
			r.logger.Warn("failed to delete plant file", "plant_id", id, "file_id", fileID, "error", err)
		}
	}
	return nil
}

// PutFile stores data under a fresh id.
func (r *Repository) PutFile(ctx context.Context, mimeType string, data []byte) (string, error) {
	id, err := r.files.Put(ctx, mimeType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to put file: %w", err)
	}
	return id, nil
}

// GetFile returns the blob bytes and MIME type, or an error wrapping
// domain.ErrNotFound.
func (r *Repository) GetFile(ctx context.Context, id string) ([]byte, string, error) {
	rc, mimeType, err := r.files.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			r.logger.Error("failed to close file", "file_id", id, "error", err)
		}
	}()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file %s: %w", id, err)
	}
	return data, mimeType, nil
}

// DeleteFile removes a blob. Unknown ids are not an error.
func (r *Repository) DeleteFile(ctx context.Context, id string) error {
	err := r.files.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// ReferencedFiles returns the set of blob ids referenced by any plant.
func (r *Repository) ReferencedFiles(ctx context.Context) (map[string]struct{}, error) {
	plants, err := r.plants.List(ctx)
	if err != nil {
		return nil, err
	}
	refs := map[string]struct{}{}
	for _, p := range plants {
		for _, id := range p.FileIDs() {
			refs[id] = struct{}{}
		}
	}
	return refs, nil
}

// PruneOrphanFiles deletes every stored blob no plant references and returns
// how many were removed.
func (r *Repository) PruneOrphanFiles(ctx context.Context) (int, error) {
	refs, err := r.ReferencedFiles(ctx)
	if err != nil {
		return 0, err
	}
	ids, err := r.files.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		if _, ok := refs[id]; ok {
			continue
		}
		if err := r.DeleteFile(ctx, id); err != nil {
			return removed, fmt.Errorf("failed to prune file %s: %w", id, err)
		}
		removed++
	}
	if removed > 0 {
		r.logger.Info("pruned orphan files", "count", removed)
	}
	return removed, nil
}

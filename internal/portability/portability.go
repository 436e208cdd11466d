// Package portability exports every plant as a self-contained snapshot with
// photos inlined as data URLs, and imports such snapshots back.
package portability

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/vbonduro/plantcare/internal/domain"
)

// Version is the snapshot format written by Export.
const Version = 2

type Snapshot struct {
	Version    int             `json:"version"`
	ExportedAt string          `json:"exportedAt"`
	Plants     []*domain.Plant `json:"plants"`
}

// ImportStats summarizes what Import wrote.
type ImportStats struct {
	Plants int `json:"plants"`
	// Photos counts blobs stored from inlined data.
	Photos int `json:"photos"`
	// Skipped counts inlined payloads that could not be decoded.
	Skipped int `json:"skipped"`
}

type plantRepository interface {
	All(ctx context.Context) ([]*domain.Plant, error)
	PutAll(ctx context.Context, plants []*domain.Plant) error
	PutFile(ctx context.Context, mimeType string, data []byte) (string, error)
	GetFile(ctx context.Context, id string) ([]byte, string, error)
	Now() time.Time
}

type Porter struct {
	repo   plantRepository
	logger *slog.Logger
}

func New(repo plantRepository, logger *slog.Logger) *Porter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Porter{repo: repo, logger: logger}
}

// Export reads every plant and inlines the blob of each photo observation.
// Blob references are kept alongside the inlined data. A blob that cannot be
// read is left out of the snapshot.
func (p *Porter) Export(ctx context.Context) (*Snapshot, error) {
	plants, err := p.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export plants: %w", err)
	}
	var inlined uint64
	for _, plant := range plants {
		for i := range plant.Observations {
			obs := &plant.Observations[i]
			if obs.FileID == "" {
				continue
			}
			data, mimeType, err := p.repo.GetFile(ctx, obs.FileID)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					return nil, fmt.Errorf("failed to export file %s: %w", obs.FileID, err)
				}
				p.logger.Warn("exported observation without photo", "plant_id", plant.ID, "file_id", obs.FileID)
				continue
			}
			obs.ImageData = EncodeDataURL(mimeType, data)
			inlined += uint64(len(data))
		}
	}
	p.logger.Info("plants exported", "plants", len(plants), "inlined", humanize.Bytes(inlined))
	return &Snapshot{
		Version:    Version,
		ExportedAt: domain.FormatTimestamp(p.repo.Now()),
		Plants:     plants,
	}, nil
}

// Import stores each inlined photo and upserts every plant with replacement
// semantics. An observation whose blob reference already resolves in this
// store keeps it; otherwise the inlined data is stored under a fresh id and
// the observation and cover are pointed at it. Undecodable payloads are
// skipped and the observation keeps no image.
func (p *Porter) Import(ctx context.Context, snap *Snapshot) (ImportStats, error) {
	var stats ImportStats
	if snap == nil || snap.Plants == nil {
		return stats, fmt.Errorf("missing plants list: %w", domain.ErrInvalidSnapshot)
	}
	plants := make([]*domain.Plant, 0, len(snap.Plants))
	// stored maps a snapshot file id to the id its blob was stored under.
	stored := map[string]string{}
	for _, plant := range snap.Plants {
		if plant == nil {
			continue
		}
		if plant.ID == "" {
			plant.ID = domain.NewID()
		}
		for i := range plant.Observations {
			if err := p.rehydrate(ctx, plant, &plant.Observations[i], stored, &stats); err != nil {
				return stats, err
			}
		}
		plants = append(plants, plant)
	}
	if err := p.repo.PutAll(ctx, plants); err != nil {
		return stats, fmt.Errorf("failed to import plants: %w", err)
	}
	stats.Plants = len(plants)
	p.logger.Info("plants imported", "plants", stats.Plants, "photos", stats.Photos, "skipped", stats.Skipped)
	return stats, nil
}

func (p *Porter) rehydrate(ctx context.Context, plant *domain.Plant, obs *domain.Observation, stored map[string]string, stats *ImportStats) error {
	inline := obs.ImageData
	obs.ImageData = ""
	if inline == "" {
		return nil
	}
	if obs.FileID != "" {
		_, _, err := p.repo.GetFile(ctx, obs.FileID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to check file %s: %w", obs.FileID, err)
		}
	}

	oldID := obs.FileID
	if id, ok := stored[oldID]; ok && oldID != "" {
		p.remap(plant, obs, oldID, id)
		return nil
	}
	mimeType, data, err := DecodeDataURL(inline)
	if err != nil {
		p.logger.Warn("skipping corrupt photo", "plant_id", plant.ID, "observation_id", obs.ID, "error", err)
		stats.Skipped++
		obs.FileID = ""
		if oldID != "" && plant.CoverFileID == oldID {
			plant.CoverFileID = ""
		}
		return nil
	}
	id, err := p.repo.PutFile(ctx, mimeType, data)
	if err != nil {
		return fmt.Errorf("failed to import photo: %w", err)
	}
	if oldID != "" {
		stored[oldID] = id
	}
	p.remap(plant, obs, oldID, id)
	stats.Photos++
	return nil
}

func (p *Porter) remap(plant *domain.Plant, obs *domain.Observation, oldID, id string) {
	obs.FileID = id
	if oldID != "" && plant.CoverFileID == oldID {
		plant.CoverFileID = id
	}
}

// Decode reads a snapshot. A payload that is not JSON or whose plants field
// is not an array is rejected with domain.ErrInvalidSnapshot. Mistyped plant
// fields are coerced or dropped rather than failing the whole import.
func Decode(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("snapshot is not valid JSON: %w", domain.ErrInvalidSnapshot)
	}
	raw, typ, _, err := jsonparser.Get(data, "plants")
	if err != nil {
		return nil, fmt.Errorf("snapshot has no plants: %w", domain.ErrInvalidSnapshot)
	}
	if typ != jsonparser.Array {
		return nil, fmt.Errorf("snapshot plants is %s, not an array: %w", typ, domain.ErrInvalidSnapshot)
	}

	snap := &Snapshot{Plants: []*domain.Plant{}}
	if v, err := jsonparser.GetInt(data, "version"); err == nil {
		snap.Version = int(v)
	}
	if v, err := jsonparser.GetString(data, "exportedAt"); err == nil {
		snap.ExportedAt = v
	}

	var decodeErr error
	index := 0
	_, err = jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
		defer func() { index++ }()
		if decodeErr != nil || dt == jsonparser.Null {
			return
		}
		if dt != jsonparser.Object {
			decodeErr = fmt.Errorf("plant %d is %s, not an object: %w", index, dt, domain.ErrInvalidSnapshot)
			return
		}
		var p domain.Plant
		if err := json.Unmarshal(coercePlant(clone(value)), &p); err != nil {
			decodeErr = fmt.Errorf("failed to decode plant %d: %v: %w", index, err, domain.ErrInvalidSnapshot)
			return
		}
		snap.Plants = append(snap.Plants, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot plants: %v: %w", err, domain.ErrInvalidSnapshot)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return snap, nil
}

func Encode(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// EncodeDataURL renders data as "data:<mime>;base64,<payload>".
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a base64 data URL into its MIME type and bytes.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URL has no payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.New("data URL is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if mimeType == "" {
		mimeType = "text/plain;charset=US-ASCII"
	}
	return mimeType, data, nil
}

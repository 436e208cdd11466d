package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vbonduro/plantcare/internal/domain"
)

// SettingsStore persists Settings as one JSON value under domain.SettingsKey.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Load returns the stored settings, creating them with defaults on first use.
// Unknown keys are ignored and missing keys take their defaults.
func (s *SettingsStore) Load(ctx context.Context) (domain.Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, domain.SettingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		def := domain.DefaultSettings()
		if err := s.Save(ctx, def); err != nil {
			return domain.Settings{}, err
		}
		return def, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings domain.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	settings.Normalize()
	return settings, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings domain.Settings) error {
	settings.Normalize()
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, domain.SettingsKey, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/plantcare/internal/domain"
)

func TestSettingsStoreLazyDefaults(t *testing.T) {
	d := openTestDB(t)
	settings := NewSettingsStore(d)
	ctx := context.Background()

	got, err := settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)

	var n int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM kv WHERE key = ?", domain.SettingsKey).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSettingsStoreSaveAndLoad(t *testing.T) {
	settings := NewSettingsStore(openTestDB(t))
	ctx := context.Background()

	temp, rh := 24.0, 40.0
	want := domain.DefaultSettings()
	want.Season = domain.SeasonPeak
	want.TempC = &temp
	want.RH = &rh
	want.OnlyOverdue = true
	require.NoError(t, settings.Save(ctx, want))

	got, err := settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsStoreToleratesUnknownAndMissingKeys(t *testing.T) {
	d := openTestDB(t)
	settings := NewSettingsStore(d)
	ctx := context.Background()

	_, err := d.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)`, domain.SettingsKey,
		`{"season":"dormant","legacyFlag":true,"taskWindow":0}`)
	require.NoError(t, err)

	got, err := settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SeasonDormant, got.Season)
	assert.Equal(t, 7, got.TaskWindow)
	assert.Equal(t, domain.TaskFilterAll, got.TaskType)
	assert.Nil(t, got.TempC)
}

func TestSettingsStoreCorruptValue(t *testing.T) {
	d := openTestDB(t)
	settings := NewSettingsStore(d)

	_, err := d.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)`, domain.SettingsKey, `{not json`)
	require.NoError(t, err)

	_, err = settings.Load(context.Background())
	assert.Error(t, err)
}

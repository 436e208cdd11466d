package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.FileBackend)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"FILE_BACKEND", "FILE_CACHE_SIZE", "ADVISOR_BACKEND", "CASCADE_FILE_DELETE"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	// Empty values are set, so string settings keep them.
	assert.Equal(t, "", cfg.FileBackend)
	assert.Equal(t, 64, cfg.FileCacheSize)
	assert.False(t, cfg.CascadeFileDelete)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("FILE_BACKEND", "local")
	t.Setenv("FILE_CACHE_SIZE", "8")
	t.Setenv("ADVISOR_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("CASCADE_FILE_DELETE", "true")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "local", cfg.FileBackend)
	assert.Equal(t, 8, cfg.FileCacheSize)
	assert.Equal(t, "claude", cfg.AdvisorBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.True(t, cfg.CascadeFileDelete)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FILE_CACHE_SIZE", "lots")
	t.Setenv("CASCADE_FILE_DELETE", "maybe")

	cfg := Load()

	assert.Equal(t, 64, cfg.FileCacheSize)
	assert.False(t, cfg.CascadeFileDelete)
}

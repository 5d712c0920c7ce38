package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
supabase:
  url: https://example.supabase.co
  anon_key: anon-123
  bucket: party-photos
server:
  host: 0.0.0.0
  port: 9000
events:
  default_radius_km: 10
  max_radius_km: 50
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "anon-123", cfg.Supabase.AnonKey)
	assert.Equal(t, "party-photos", cfg.Supabase.Bucket)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Events.DefaultRadiusKm)
	assert.Equal(t, 50.0, cfg.Events.MaxRadiusKm)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
supabase:
  url: https://example.supabase.co
  anon_key: anon-123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8484, cfg.Server.Port)
	assert.Equal(t, "event-photos", cfg.Supabase.Bucket)
	assert.Equal(t, 25.0, cfg.Events.DefaultRadiusKm)
	assert.Equal(t, 100.0, cfg.Events.MaxRadiusKm)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRequiresBackendURL(t *testing.T) {
	path := writeConfig(t, `
supabase:
  anon_key: anon-123
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supabase.url")
}

func TestLoadRequiresAnonKey(t *testing.T) {
	path := writeConfig(t, `
supabase:
  url: https://example.supabase.co
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supabase.anon_key")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
supabase:
  url: https://file.supabase.co
  anon_key: file-key
`)

	t.Setenv("SUPABASE_URL", "https://env.supabase.co")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "file-key", cfg.Supabase.AnonKey)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

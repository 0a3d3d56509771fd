package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./taca.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Zero(t, cfg.Edition.Year)
	assert.Empty(t, cfg.Server.AuthTokens)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /var/lib/taca/taca.db
server:
  port: 9090
  auth_tokens:
    secret-token: director
edition:
  year: 2024
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/taca/taca.db", cfg.Database.Path)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "director", cfg.Server.AuthTokens["secret-token"])
	assert.Equal(t, 2024, cfg.Edition.Year)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TACA_DB_PATH", "/tmp/override.db")
	t.Setenv("TACA_PORT", "7070")
	t.Setenv("TACA_ADMIN_TOKEN", "root-token")
	t.Setenv("TACA_EDITION_YEAR", "2026")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "admin", cfg.Server.AuthTokens["root-token"])
	assert.Equal(t, 2026, cfg.Edition.Year)
}

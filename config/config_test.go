package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "./schemas", settings.SchemaDir)
	require.Equal(t, "info", settings.LogLevel)
	require.Equal(t, 5432, settings.Database.Port)
	require.Equal(t, "public", settings.Database.Schema)
	require.Equal(t, "prefer", settings.Database.SSLMode)
	require.Equal(t, 10, settings.Database.MaxConnections)
	require.Equal(t, 5, settings.Database.AcquireTimeoutSeconds)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schema_dir: /etc/strata/schemas
log_level: debug
database:
  host: db.internal
  port: 5433
  name: content
  user: strata
  max_connections: 25
`), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/etc/strata/schemas", settings.SchemaDir)
	require.Equal(t, "debug", settings.LogLevel)
	require.Equal(t, "db.internal", settings.Database.Host)
	require.Equal(t, 5433, settings.Database.Port)
	require.Equal(t, 25, settings.Database.MaxConnections)
	// Unset keys keep their defaults.
	require.Equal(t, "public", settings.Database.Schema)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("STRATA_DATABASE_HOST", "env-host")
	t.Setenv("STRATA_LOG_LEVEL", "warn")

	settings, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "env-host", settings.Database.Host)
	require.Equal(t, "warn", settings.LogLevel)
}

func TestDatabaseConfig(t *testing.T) {
	settings := Settings{Database: Database{
		Host:                  "h",
		Port:                  5432,
		Name:                  "n",
		Schema:                "content",
		User:                  "u",
		MinConnections:        2,
		MaxConnections:        8,
		AcquireTimeoutSeconds: 3,
	}}

	cfg := settings.DatabaseConfig()
	require.Equal(t, "content", cfg.Schema)
	require.Equal(t, 2, cfg.MinConnections)
	require.Equal(t, 8, cfg.MaxConnections)
	require.Equal(t, 3*time.Second, cfg.AcquireTimeout)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
matching:
  past_window: 3
  future_window: 7
  min_amount_delta: 1
  max_amount_delta: 2.5
  delta_mode: absolute
  allow_uncategorized: true
  identifiers: [ameli, "harmonie mutuelle"]
storage:
  driver: postgres
  dsn: postgres://linker@localhost/linker?sslmode=disable
server:
  port: 9000
observability:
  logging:
    level: debug
    format: json
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Matching.PastWindow)
	assert.Equal(t, 7, cfg.Matching.FutureWindow)
	assert.Equal(t, 2.5, cfg.Matching.MaxAmountDelta)
	assert.Equal(t, "absolute", cfg.Matching.DeltaMode)
	assert.True(t, cfg.Matching.AllowUncategorized)
	assert.Equal(t, []string{"ameli", "harmonie mutuelle"}, cfg.Matching.Identifiers)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)

	driver, dsn := cfg.Storage.DataSource()
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "postgres://linker@localhost/linker?sslmode=disable", dsn)
}

func TestLoad_MissingKeysKeepDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9001
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Matching.PastWindow)
	assert.Equal(t, 0.1, cfg.Matching.MinAmountDelta)
	assert.Equal(t, "bill_linker.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "console", cfg.Observability.Logging.Format)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "matching: [not, a, map")

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LINKER_DB_PATH", "test.db")
	t.Setenv("LINKER_PAST_WINDOW", "4")
	t.Setenv("LINKER_MAX_AMOUNT_DELTA", "0.25")
	t.Setenv("LINKER_ALLOW_UNCATEGORIZED", "true")
	t.Setenv("LINKER_IDENTIFIERS", "ameli, mgen,,")
	t.Setenv("LINKER_PORT", "9100")

	cfg := LoadFromEnv()

	assert.NotNil(t, cfg)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 4, cfg.Matching.PastWindow)
	assert.Equal(t, 0.25, cfg.Matching.MaxAmountDelta)
	assert.True(t, cfg.Matching.AllowUncategorized)
	assert.Equal(t, []string{"ameli", "mgen"}, cfg.Matching.Identifiers)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg := LoadFromEnv()

	assert.NotNil(t, cfg)
	assert.Equal(t, "bill_linker.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
	assert.Equal(t, 8085, cfg.Server.Port)
}

func TestLoadFromEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv("LINKER_PAST_WINDOW", "soon")
	t.Setenv("LINKER_MIN_AMOUNT_DELTA", "lots")
	t.Setenv("LINKER_ALLOW_UNCATEGORIZED", "maybe")

	cfg := LoadFromEnv()

	assert.Equal(t, 15, cfg.Matching.PastWindow)
	assert.Equal(t, 0.1, cfg.Matching.MinAmountDelta)
	assert.False(t, cfg.Matching.AllowUncategorized)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	// Test fallback when config file doesn't exist
	t.Setenv("LINKER_DB_PATH", "fallback.db")

	// Try to load from non-existent file
	cfg := LoadOrEnv_WithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "expanded.db")
	t.Setenv("TEST_DSN", "file:expanded.db?_foreign_keys=on")

	path := writeConfig(t, `
storage:
  database_path: "${TEST_DB_PATH}"
  dsn: "${TEST_DSN}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)

	driver, dsn := cfg.Storage.DataSource()
	assert.Equal(t, "sqlite3", driver)
	assert.Equal(t, "file:expanded.db?_foreign_keys=on", dsn)
}

func TestMatchingConfig_ToOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := Default().Matching.ToOptions()

		require.NoError(t, err)
		assert.Equal(t, 15, opts.PastWindow)
		assert.True(t, decimal.RequireFromString("0.1").Equal(opts.MinAmountDelta))
		assert.Equal(t, matcher.DeltaPercent, opts.DeltaMode)
		assert.Equal(t, 1, opts.IdentifierDistance)
	})

	t.Run("mode is case insensitive", func(t *testing.T) {
		m := Default().Matching
		m.DeltaMode = "ABSOLUTE"

		opts, err := m.ToOptions()

		require.NoError(t, err)
		assert.Equal(t, matcher.DeltaAbsolute, opts.DeltaMode)
	})

	t.Run("empty mode means percent", func(t *testing.T) {
		m := Default().Matching
		m.DeltaMode = ""

		opts, err := m.ToOptions()

		require.NoError(t, err)
		assert.Equal(t, matcher.DeltaPercent, opts.DeltaMode)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		m := Default().Matching
		m.FutureWindow = -1

		_, err := m.ToOptions()

		assert.ErrorContains(t, err, "invalid matching config")
	})
}

func TestStorageConfig_DataSource(t *testing.T) {
	driver, dsn := StorageConfig{DatabasePath: "x.db"}.DataSource()
	assert.Equal(t, "sqlite3", driver)
	assert.Equal(t, "x.db", dsn)
}

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/eshaffer321/bill-linker/internal/infrastructure/config"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/logging"
	"github.com/eshaffer321/bill-linker/internal/infrastructure/storage"
)

// configCandidates are tried in order when no config file is given.
var configCandidates = []string{"config.yaml", "config.yml"}

// LoadConfig loads the given config file. With an empty path it looks for
// a config file in the working directory and falls back to the
// environment.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		for _, candidate := range configCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path == "" {
		return config.LoadFromEnv(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// NewLogger builds the logger of a command.
func NewLogger(cfg *config.Config, system string, verbose bool) *slog.Logger {
	loggingCfg := cfg.Observability.Logging
	if verbose {
		loggingCfg.Level = "debug"
	}
	return logging.NewLoggerWithSystem(loggingCfg, system)
}

// OpenStore opens the configured database and applies pending migrations.
func OpenStore(cfg config.StorageConfig) (*storage.Storage, error) {
	driver, dsn := cfg.DataSource()
	if dsn == "" {
		return nil, fmt.Errorf("no data source configured for driver %s", driver)
	}

	store, err := storage.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	return store, nil
}

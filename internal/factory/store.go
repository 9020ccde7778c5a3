// Package factory constructs driver-specific dependencies from config.
package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/config"
	storepkg "github.com/emberwell/wellness-backend/internal/store"
	storepg "github.com/emberwell/wellness-backend/internal/store/postgres"
	storesqlite "github.com/emberwell/wellness-backend/internal/store/sqlite"
)

// NewStore returns the store.Store for the configured driver. SQLite gets
// its schema applied on open; postgres is expected to be migrated already.
func NewStore(cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		st, err := storesqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("driver", "sqlite").Str("path", cfg.SQLitePath).Msg("store ready")
		return st, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("WELLNESS_BACKEND_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info().Str("driver", "postgres").Msg("store ready")
		return storepg.NewWithDB(db), nil
	}
	return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
}

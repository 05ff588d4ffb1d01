// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hongminglow/finance-ledger/internal/config"
	"github.com/hongminglow/finance-ledger/internal/storage"
	"github.com/hongminglow/finance-ledger/internal/storage/postgres"
	"github.com/hongminglow/finance-ledger/internal/storage/sqlite"
)

// Open connects to the configured driver and runs its migrations.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		logger.Info("initialized postgres store")
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		logger.Info("initialized sqlite store", "path", cfg.SQLitePath)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

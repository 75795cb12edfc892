package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/oidcgate/internal/config"
	"github.com/go-authgate/oidcgate/internal/store"

	"go.uber.org/zap"
)

// initializeDatabase creates and initializes the database connection
func initializeDatabase(
	ctx context.Context,
	cfg *config.Config,
	log *zap.SugaredLogger,
) (*store.Store, error) {
	// Create timeout context for this specific operation
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Infow("database initialized", "driver", cfg.DatabaseDriver)
	return db, nil
}

package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/procurement-backend/pkg/config"
	"github.com/angelmondragon/procurement-backend/pkg/db"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
)

// autoMigrateEnabled is true only for a dev environment with
// PROCUREMENT_AUTO_MIGRATE set. The SQL files are Postgres-only.
func autoMigrateEnabled(cfg *config.Config) bool {
	return cfg != nil &&
		cfg.App.IsDev() &&
		cfg.FeatureFlags.AutoMigrate &&
		!strings.EqualFold(strings.TrimSpace(cfg.DB.Driver), db.DriverSQLite)
}

// MaybeRunDev applies pending migrations from DefaultDir when auto-migrate is
// enabled. It is a no-op otherwise.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !autoMigrateEnabled(cfg) {
		return nil
	}
	if client == nil {
		return errors.New("auto-migrate: database client is required")
	}

	pool, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: resolve sql pool: %w", err)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"service": cfg.Service.Kind,
			"dir":     DefaultDir,
		})
		logg.Info(ctx, "auto-migrate starting")
	}
	if err := Run(ctx, pool, DefaultDir, CommandUp); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "auto-migrate completed")
	}
	return nil
}

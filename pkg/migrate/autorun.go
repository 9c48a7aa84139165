package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vivetti/salesdesk-backend/pkg/config"
	"github.com/vivetti/salesdesk-backend/pkg/db"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
)

// Up brings the schema to the latest version. The SQL files target Postgres,
// so a sqlite database is migrated from the models instead.
func Up(ctx context.Context, gdb *gorm.DB, dir string) error {
	if gdb.Dialector.Name() == db.DriverSQLite {
		if err := gdb.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	return Run(ctx, sqlDB, dir, "up")
}

// MaybeRunDev migrates on startup in dev when SALESDESK_AUTO_MIGRATE is set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"driver": cfg.DB.Driver, "dir": DefaultDir})
	if err := Up(ctx, client.DB(), DefaultDir); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.auto_run.completed")
	return nil
}

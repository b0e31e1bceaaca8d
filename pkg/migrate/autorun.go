package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/checkout-bridge/pkg/config"
	"github.com/angelmondragon/checkout-bridge/pkg/db"
	"github.com/angelmondragon/checkout-bridge/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on startup when running in dev
// with AUTO_MIGRATE enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.App.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "migrate.autorun_start")

	migrator, err := New(sqlDB, Embedded(), logg)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "migrate.autorun_complete")
	return nil
}

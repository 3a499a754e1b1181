package dbcore

import (
	"context"

	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// FxModule provides the database instance and lifecycle hooks.
//
// It initializes the global DB instance and returns it for DI.
func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(provideDB),
		fx.Invoke(registerDBHooks),
	)
}

func provideDB(cfg *conf.Config) (*gorm.DB, error) {
	if err := BootWithConfig(cfg); err != nil {
		return nil, err
	}
	return GetDBInstance(), nil
}

func registerDBHooks(lc fx.Lifecycle, cfg *conf.Config, db *gorm.DB, bus *host.Bus) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if !IsSQLite(cfg.Database) {
				return nil
			}
			bus.On(eventType.SchedulerEvery5Minutes, func(ctx context.Context, _ *host.Event) error {
				return db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(TRUNCATE);").Error
			})
			bus.On(eventType.SchedulerEveryDay, func(ctx context.Context, _ *host.Event) error {
				return db.WithContext(ctx).Exec("VACUUM;").Error
			})
			return nil
		},
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
}

package deliveries

import (
	"context"
	"log/slog"
	"time"

	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	"go.uber.org/fx"
)

func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(New),
		fx.Invoke(registerPruning),
	)
}

// registerPruning 每小时清理超过 delivery_retention 小时的记录，保留时间以小时计
func registerPruning(cfg *conf.Config, repo *Repository, bus *host.Bus) {
	if cfg.Device.DeliveryRetention <= 0 {
		return
	}
	retention := time.Duration(cfg.Device.DeliveryRetention) * time.Hour
	bus.On(eventType.SchedulerEveryHour, func(ctx context.Context, _ *host.Event) error {
		n, err := repo.DeleteBefore(ctx, time.Now().Add(-retention))
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("pruned delivery records", "count", n)
		}
		return nil
	})
}

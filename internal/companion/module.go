package companion

import (
	"context"
	"log/slog"

	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/device"
	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	"github.com/komari-monitor/companion/internal/store"
	"github.com/komari-monitor/companion/internal/webview"
	"go.uber.org/fx"
)

// FxModule registers the companion on the host bus and announces ready on start.
func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(provideCompanion),
		fx.Invoke(registerCompanion),
	)
}

func provideCompanion(cfg *conf.Config, s store.Store, opener *webview.Sessions, d *device.Dispatcher) *Companion {
	return New(cfg.Companion, s, opener, d, slog.Default())
}

func registerCompanion(lc fx.Lifecycle, bus *host.Bus, c *Companion) {
	Register(bus, c)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return bus.Dispatch(ctx, eventType.Ready, nil)
		},
		OnStop: func(ctx context.Context) error {
			return c.WaitContext(ctx)
		},
	})
}

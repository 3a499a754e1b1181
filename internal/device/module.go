package device

import (
	"context"

	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/database/deliveries"
	"go.uber.org/fx"
)

// FxModule provides the Dispatcher with the configured transport loaded.
func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(provideDispatcher),
	)
}

func provideDispatcher(lc fx.Lifecycle, cfg *conf.Config, repo *deliveries.Repository) (*Dispatcher, error) {
	d := NewDispatcher(cfg.Device, repo)
	if err := d.Load(cfg.Device.Transport, cfg); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		return d.Close()
	}})
	return d, nil
}

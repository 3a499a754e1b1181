package api

import (
	"github.com/komari-monitor/companion/internal/companion"
	"github.com/komari-monitor/companion/internal/database/deliveries"
	"github.com/komari-monitor/companion/internal/device"
	"github.com/komari-monitor/companion/internal/host"
	"github.com/komari-monitor/companion/internal/webview"
	"go.uber.org/fx"
)

func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(newHandler),
		fx.Invoke(LoadRoutes),
	)
}

func newHandler(bus *host.Bus, sessions *webview.Sessions, c *companion.Companion, repo *deliveries.Repository, d *device.Dispatcher) *Handler {
	return &Handler{
		Bus:        bus,
		Sessions:   sessions,
		Options:    c,
		Deliveries: repo,
		Device:     d,
	}
}

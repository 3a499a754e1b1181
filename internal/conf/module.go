package conf

import (
	"log/slog"

	"github.com/komari-monitor/companion/cmd/flags"
	"go.uber.org/fx"
)

// FxModule provides the configuration loaded from flags.ConfigFile.
//
// It also keeps the global Conf updated for code outside the DI graph.
func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(loadConfig),
	)
}

func loadConfig() (*Config, error) {
	cst, created, err := LoadOrCreate(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info("Configuration file not found, default configuration written.", slog.String("path", flags.ConfigFile))
	}
	if flags.Listen != "" {
		cst.Listen = flags.Listen
	}
	Conf = cst
	return Conf, nil
}

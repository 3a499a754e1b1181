package host

import (
	"context"

	"go.uber.org/fx"
)

func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(provideBus),
	)
}

func provideBus(lc fx.Lifecycle) *Bus {
	b := NewBus("companion")
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		return b.Close()
	}})
	return b
}

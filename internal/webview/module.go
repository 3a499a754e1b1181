package webview

import "go.uber.org/fx"

func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(NewSessions),
	)
}

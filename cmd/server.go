package cmd

import (
	"os"

	"github.com/komari-monitor/companion/internal/api"
	"github.com/komari-monitor/companion/internal/companion"
	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/database/deliveries"
	"github.com/komari-monitor/companion/internal/dbcore"
	"github.com/komari-monitor/companion/internal/device"
	"github.com/komari-monitor/companion/internal/host"
	"github.com/komari-monitor/companion/internal/scheduler"
	"github.com/komari-monitor/companion/internal/server"
	"github.com/komari-monitor/companion/internal/store"
	"github.com/komari-monitor/companion/internal/webview"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// coreModules 是所有命令共用的模块：配置、宿主总线、存储、设备与 companion
func coreModules() fx.Option {
	return fx.Options(
		conf.FxModule(),
		host.FxModule(),
		dbcore.FxModule(),
		store.FxModule(),
		deliveries.FxModule(),
		webview.FxModule(),
		device.FxModule(),
		companion.FxModule(),
		fx.NopLogger,
	)
}

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the server",
	Long:  `Start the HTTP host: configuration page, webview callbacks and the paired device endpoint`,
	Run: func(cmd *cobra.Command, args []string) {
		fxApp := fx.New(
			coreModules(),
			server.FxModule(),
			api.FxModule(),
			scheduler.FxModule(),
		)
		if err := runUntilSignal(fxApp); err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(ServerCmd)
}

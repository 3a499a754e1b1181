package cmd

import (
	"context"

	"github.com/gookit/event"
	"github.com/komari-monitor/companion/internal/companion"
	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var submitResponse string

var SubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Deliver a configuration page response as if the webview had closed",
	Long: `Dispatch webviewclosed with the given URL-encoded JSON response, store it
and wait until the paired device acknowledged it or the send failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			bus  *host.Bus
			comp *companion.Companion
		)
		fxApp := fx.New(coreModules(), fx.Populate(&bus, &comp))
		return runOnce(fxApp, func(ctx context.Context) error {
			data := event.M{}
			if submitResponse != "" {
				data[host.ResponseKey] = submitResponse
			}
			return bus.Dispatch(ctx, eventType.WebviewClosed, data)
		}, func(ctx context.Context) error {
			return comp.WaitContext(ctx)
		})
	},
}

func init() {
	SubmitCmd.Flags().StringVarP(&submitResponse, "response", "r", "", "URL-encoded JSON options, empty means the page was closed without saving")
	RootCmd.AddCommand(SubmitCmd)
}

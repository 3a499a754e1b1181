package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	"github.com/komari-monitor/companion/internal/webview"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var ConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Print the configuration page URL built from the stored options",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			bus      *host.Bus
			sessions *webview.Sessions
		)
		fxApp := fx.New(coreModules(), fx.Populate(&bus, &sessions))
		return runOnce(fxApp, func(ctx context.Context) error {
			id := sessions.NewSession()
			if err := bus.Dispatch(webview.WithSession(ctx, id), eventType.ShowConfiguration, nil); err != nil {
				return err
			}
			url, ok := sessions.Take(id)
			if !ok {
				return errors.New("configuration page was not opened")
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		}, nil)
	},
}

func init() {
	RootCmd.AddCommand(ConfigureCmd)
}

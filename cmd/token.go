package cmd

import (
	"fmt"
	"time"

	"github.com/komari-monitor/companion/internal/authenticator"
	"github.com/spf13/cobra"
)

var (
	tokenSecrets  string
	tokenTimezone string
)

var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the current code of every secret in a secrets file",
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := authenticator.LoadSecrets(tokenSecrets)
		if err != nil {
			return err
		}
		if tokenTimezone != "" {
			sf.Timezone = tokenTimezone
		}
		a := authenticator.New(sf)
		now := time.Now()
		local := a.LocalClock(now)
		remaining := authenticator.SecondsRemaining(now)
		for range sf.Secrets {
			s, err := a.Current()
			if err != nil {
				return err
			}
			code, err := a.Code(local)
			if err != nil {
				return fmt.Errorf("%s: %w", s.Label, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s  (%ds)\n", s.Label, code, remaining)
			if _, err := a.Next(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	TokenCmd.Flags().StringVarP(&tokenSecrets, "secrets", "s", GetEnv("COMPANION_SECRETS_FILE", "./data/configuration.txt"), "Secrets file, one label:secret per line [env: COMPANION_SECRETS_FILE]")
	TokenCmd.Flags().StringVar(&tokenTimezone, "timezone", "", "Timezone offset in hours, overrides tz: in the secrets file")
	RootCmd.AddCommand(TokenCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/komari-monitor/companion/cmd/flags"
	"github.com/spf13/cobra"
)

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

var RootCmd = &cobra.Command{
	Use:   "companion",
	Short: "Companion bridges a configuration page and a paired authenticator device",
	Long: `Companion opens the authenticator configuration page, stores what it
returns and forwards the options to the paired device.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetArgs([]string{"server"})
		cmd.Execute()
	},
}

func Execute() {
	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		slog.Error("Failed to create data directory", slog.Any("error", err))
	}
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func init() {
	// .env 需要在读取环境变量默认值之前加载
	if err := loadDotEnv(".env"); err != nil {
		slog.Warn("Failed to load .env", slog.Any("error", err))
	}
	RootCmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", GetEnv("COMPANION_CONFIG_FILE", "./data/companion.json"), "Configuration file path [env: COMPANION_CONFIG_FILE]")
	RootCmd.PersistentFlags().StringVarP(&flags.Listen, "listen", "l", GetEnv("COMPANION_LISTEN", ""), "Listen address, overrides the config file [env: COMPANION_LISTEN]")
}

package main

import (
	"log"
	"log/slog"

	"github.com/komari-monitor/companion/cmd"
	"github.com/komari-monitor/companion/internal/conf"
	logutil "github.com/komari-monitor/companion/internal/log"
)

func main() {
	if conf.Version == conf.Version_Development {
		logutil.SetupGlobalLogger(slog.LevelDebug)
	} else {
		logutil.SetupGlobalLogger(slog.LevelInfo)
	}

	log.Printf("Komari Companion %s (hash: %s)", conf.Version, conf.CommitHash)

	cmd.Execute()
}

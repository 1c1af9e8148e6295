// Package cmd holds the maintenance subcommands. They read the same
// configuration as the service but never touch the strip.
package cmd

import (
	"log/slog"
	"time"

	"github.com/smazurov/liftlights/internal/logging"
)

// Settings is the subset of the service configuration the subcommands use.
// main fills it in after the configuration is loaded and before any
// subcommand runs.
type Settings struct {
	SourceURL         string
	SourceTimeout     time.Duration
	CatalogFile       string
	LEDCount          int
	UpdaterRepository string
	UpdaterPrerelease bool
}

func commandLogger(name string) *slog.Logger {
	return logging.GetLogger(name)
}

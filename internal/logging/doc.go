// Package logging wraps log/slog with per-module levels that can change at
// runtime.
//
// Every module gets its own logger from [GetLogger]; records carry a
// "module" attribute and are filtered by that module's level, falling back
// to the global level:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"fetch": "debug"},
//	})
//	logger := logging.GetLogger("fetch")
//	logger.Debug("Status request", "url", url)
//
// Records go to stdout (unless it is /dev/null), to the systemd journal
// under the identifier "liftlights" when journald is reachable, and to an
// in-memory history of the last 1000 entries. The HTTP API serves the
// history through [Recent] and streams new entries through the callback
// installed with [SetLogCallback].
//
// [SetLevels] applies new levels to loggers that already exist, which is
// how a config file reload takes effect:
//
//	[logging]
//	level = "warn"
//	cycle = "debug"
//
// Journal fields are the upper-cased attribute keys:
//
//	journalctl -t liftlights MODULE=cycle -f
package logging

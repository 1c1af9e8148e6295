package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/liftlights/internal/api"
	"github.com/smazurov/liftlights/internal/config"
	"github.com/smazurov/liftlights/internal/cycle"
	"github.com/smazurov/liftlights/internal/display"
	"github.com/smazurov/liftlights/internal/events"
	"github.com/smazurov/liftlights/internal/fetch"
	"github.com/smazurov/liftlights/internal/gate"
	"github.com/smazurov/liftlights/internal/led"
	"github.com/smazurov/liftlights/internal/lifts"
	"github.com/smazurov/liftlights/internal/logging"
	"github.com/smazurov/liftlights/internal/metrics"
	"github.com/smazurov/liftlights/internal/strip"
	"github.com/smazurov/liftlights/internal/systemd"
	"github.com/smazurov/liftlights/internal/updater"
	"github.com/smazurov/liftlights/internal/version"
)

// app is the running service: one controller loop plus the HTTP API.
type app struct {
	opts       *Options
	logger     *slog.Logger
	strip      strip.Strip
	controller *cycle.Controller
	server     *api.Server
	ledManager *led.Manager
	notifier   *systemd.Notifier
	watcher    *config.Watcher[logging.Config]

	// loopDone is closed when the controller loop has returned; the strip
	// must stay open until then.
	loopDone chan struct{}
}

// loopStopTimeout bounds how long stop waits for the cycle in flight.
const loopStopTimeout = 10 * time.Second

func newApp(opts *Options, logger *slog.Logger) (*app, error) {
	logger.Info("Starting", "version", version.Version, "commit", version.GitCommit)

	if opts.SourceURL == "" {
		return nil, errors.New("source.url is not set")
	}

	names, err := lifts.LoadCatalog(opts.LiftsCatalogFile)
	if err != nil {
		return nil, err
	}
	registry := lifts.NewRegistry(names)
	if dups := registry.Duplicates(); len(dups) > 0 {
		logger.Warn("Lift catalog lists names more than once; only the first LED is used", "lifts", dups)
	}

	loc, err := time.LoadLocation(opts.GateTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid gate.timezone: %w", err)
	}
	window, err := gate.New(opts.GateStartHour, opts.GateEndHour, loc)
	if err != nil {
		return nil, err
	}

	fetcher, err := fetch.New(opts.SourceURL, logging.GetLogger("fetch"),
		fetch.WithTimeout(parseDuration(opts.SourceTimeout, fetch.DefaultTimeout)))
	if err != nil {
		return nil, err
	}

	out, err := strip.New(strip.Config{
		Backend:  opts.StripBackend,
		Address:  opts.StripAddress,
		Channel:  opts.StripChannel,
		LEDCount: opts.StripLEDCount,
		GPIOPin:  opts.StripGPIOPin,
	}, logging.GetLogger("strip"))
	if err != nil {
		return nil, fmt.Errorf("failed to open strip: %w", err)
	}

	driver, err := display.NewDriver(registry, out, opts.StripLEDCount,
		display.NewPalette(opts.StripBrightness), logging.GetLogger("display"))
	if err != nil {
		out.Close()
		return nil, err
	}

	eventBus := events.New()
	logging.SetLogCallback(func(entry logging.LogEntry) {
		eventBus.Publish(events.LogEntryEvent{
			Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
			Level:      entry.Level,
			Module:     entry.Module,
			Message:    entry.Message,
			Attributes: entry.Attributes,
		})
	})

	driver.OnCommit(func(frame []display.Color) {
		colors := make([]string, len(frame))
		for i, c := range frame {
			colors[i] = c.String()
		}
		eventBus.Publish(events.FrameCommittedEvent{
			Colors:    colors,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})

	a := &app{
		opts:     opts,
		logger:   logger,
		strip:    out,
		notifier: systemd.NewNotifier(logger),
		loopDone: make(chan struct{}),
	}

	m := metrics.New()
	m.CountDroppedEvents(eventBus.Dropped)
	interval := parseDuration(opts.CycleInterval, cycle.DefaultInterval)
	if wd := a.notifier.WatchdogInterval(); wd > 0 && wd <= interval {
		logger.Warn("systemd watchdog is shorter than the cycle interval", "watchdog", wd, "interval", interval)
	}

	a.controller, err = cycle.New(cycle.Config{
		Registry:     registry,
		Gate:         window,
		Fetcher:      fetcher,
		Display:      driver,
		Interval:     interval,
		MinSyncYear:  opts.GateMinSyncYear,
		ClearOnStart: true,
		Events:       eventBus,
		Recorder:     m,
		AfterCycle:   a.afterCycle,
		Logger:       logging.GetLogger("cycle"),
	})
	if err != nil {
		out.Close()
		return nil, err
	}

	var ledController led.Controller
	if opts.FeaturesStatusLED {
		ledLogger := logging.GetLogger("led")
		ledController = led.New(ledLogger)
		a.ledManager = led.NewManager(ledController, eventBus, opts.FeaturesStatusLEDType, ledLogger)
	}

	upd, err := updater.New(updater.Options{
		Repository: opts.UpdaterRepository,
		Prerelease: opts.UpdaterPrerelease,
		Restart:    updater.SignalRestart,
	}, logging.GetLogger("updater"))
	if err != nil {
		logger.Warn("Self-update unavailable", "error", err)
	}

	apiOpts := &api.Options{
		Controller:    a.controller,
		Frame:         driver,
		EventBus:      eventBus,
		LEDController: ledController,
	}
	if a.ledManager != nil {
		apiOpts.StatusLED = a.ledManager.LEDType()
	}
	if upd != nil {
		apiOpts.Updater = upd
	}
	if opts.ObsPrometheusEnabled {
		apiOpts.MetricsHandler = m.Handler()
	}
	a.server = api.NewServer(apiOpts)

	a.watcher = config.NewConfigWatcher(opts.Config, config.ReadLoggingConfig, logger)
	a.watcher.OnReload(func(cfg logging.Config) {
		logging.SetLevels(mergeLogging(opts.loggingConfig(), cfg))
		logger.Info("Logging levels reloaded", "levels", logging.ModuleLevels())
	})

	logger.Info("Configured",
		"source", fetcher.URL(),
		"window", window.String(),
		"interval", interval,
		"lifts", registry.Len(),
		"led_count", opts.StripLEDCount,
		"backend", opts.StripBackend)

	return a, nil
}

// run starts the API and blocks in the controller loop until ctx is done.
func (a *app) run(ctx context.Context) error {
	if err := a.watcher.Start(); err != nil {
		a.logger.Warn("Config hot reload disabled", "error", err)
	}
	if a.ledManager != nil {
		a.ledManager.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(a.opts.Port)
	}()

	loopErr := make(chan error, 1)
	go func() {
		defer close(a.loopDone)
		loopErr <- a.controller.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return <-loopErr
	case err := <-loopErr:
		return err
	}
}

func (a *app) afterCycle(r cycle.Result) {
	a.notifier.Ready()
	a.notifier.Watchdog()
	a.notifier.Status(fmt.Sprintf("%s: %d lit, %d unmatched", r.Outcome, r.Written, r.Unmatched))
}

func (a *app) stop() {
	a.notifier.Stopping()

	if err := a.server.Stop(); err != nil {
		a.logger.Error("Error stopping HTTP server", "error", err)
	}
	if a.ledManager != nil {
		a.ledManager.Stop()
	}
	if err := a.watcher.Stop(); err != nil {
		a.logger.Debug("Config watcher stop", "error", err)
	}
	a.closeStrip(loopStopTimeout)
}

// closeStrip releases the strip once the controller loop has returned. The
// caller must already have cancelled the loop's context. If the loop does
// not return within timeout the strip is left open.
func (a *app) closeStrip(timeout time.Duration) {
	select {
	case <-a.loopDone:
	case <-time.After(timeout):
		a.logger.Error("Cycle loop still running, leaving strip open", "timeout", timeout)
		return
	}
	if err := a.strip.Close(); err != nil {
		a.logger.Warn("Error closing strip", "error", err)
	}
}

// mergeLogging overlays levels read from the file onto the startup
// configuration, so modules absent from the file keep their level.
func mergeLogging(base, reloaded logging.Config) logging.Config {
	if reloaded.Level != "" {
		base.Level = reloaded.Level
	}
	merged := make(map[string]string, len(base.Modules))
	for k, v := range base.Modules {
		merged[k] = v
	}
	for k, v := range reloaded.Modules {
		merged[k] = v
	}
	base.Modules = merged
	return base
}

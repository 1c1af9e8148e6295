package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/liftlights/cmd"
	"github.com/smazurov/liftlights/internal/config"
	"github.com/smazurov/liftlights/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Status source
	SourceURL     string `help:"Lift status endpoint (JSON with a lifts object)" default:"" toml:"source.url" env:"SOURCE_URL"`
	SourceTimeout string `help:"Timeout for one status request" default:"10s" toml:"source.timeout" env:"SOURCE_TIMEOUT"`

	// Cycle settings
	CycleInterval string `help:"Pause between cycles" default:"60s" toml:"cycle.interval" env:"CYCLE_INTERVAL"`

	// Operating window
	GateStartHour   int    `help:"First hour the strip is lit (inclusive)" default:"8" toml:"gate.start_hour" env:"GATE_START_HOUR"`
	GateEndHour     int    `help:"Last hour the strip is lit (inclusive)" default:"17" toml:"gate.end_hour" env:"GATE_END_HOUR"`
	GateTimezone    string `help:"Time zone the window is evaluated in" default:"Europe/Paris" toml:"gate.timezone" env:"GATE_TIMEZONE"`
	GateMinSyncYear int    `help:"Wait until the clock reports at least this year (0 disables)" default:"2024" toml:"gate.min_sync_year" env:"GATE_MIN_SYNC_YEAR"`

	// Strip settings
	StripBackend    string `help:"Strip backend (opc, artnet, ws281x, log)" default:"log" toml:"strip.backend" env:"STRIP_BACKEND"`
	StripAddress    string `help:"host:port of the OPC or Art-Net receiver" default:"127.0.0.1:7890" toml:"strip.address" env:"STRIP_ADDRESS"`
	StripChannel    int    `help:"OPC channel or Art-Net universe" default:"0" toml:"strip.channel" env:"STRIP_CHANNEL"`
	StripLEDCount   int    `help:"Number of LEDs on the strip" default:"50" toml:"strip.led_count" env:"STRIP_LED_COUNT"`
	StripBrightness int    `help:"Global brightness 0-255" default:"50" toml:"strip.brightness" env:"STRIP_BRIGHTNESS"`
	StripGPIOPin    int    `help:"GPIO pin for the ws281x backend" default:"18" toml:"strip.gpio_pin" env:"STRIP_GPIO_PIN"`

	// Lift catalog
	LiftsCatalogFile string `help:"TOML file with the ordered lift names (empty uses the built-in list)" default:"" toml:"lifts.catalog_file" env:"LIFTS_CATALOG_FILE"`

	// Features settings
	FeaturesStatusLED     bool   `help:"Mirror cycle health on a board LED" default:"false" toml:"features.status_led" env:"FEATURES_STATUS_LED"`
	FeaturesStatusLEDType string `help:"Board LED to drive (empty picks the first available)" default:"" toml:"features.status_led_type" env:"FEATURES_STATUS_LED_TYPE"`

	// Observability settings
	ObsPrometheusEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"obs.prometheus_enabled" env:"OBS_PROMETHEUS_ENABLED"`

	// Updater settings
	UpdaterRepository string `help:"GitHub repository releases are fetched from" default:"smazurov/liftlights" toml:"updater.repository" env:"UPDATER_REPOSITORY"`
	UpdaterPrerelease bool   `help:"Include pre-releases" default:"false" toml:"updater.prerelease" env:"UPDATER_PRERELEASE"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCycle   string `help:"Cycle controller logging level" default:"info" toml:"logging.cycle" env:"LOGGING_CYCLE"`
	LoggingFetch   string `help:"Status fetch logging level" default:"info" toml:"logging.fetch" env:"LOGGING_FETCH"`
	LoggingStatus  string `help:"Payload parser logging level" default:"info" toml:"logging.status" env:"LOGGING_STATUS"`
	LoggingDisplay string `help:"Frame buffer logging level" default:"info" toml:"logging.display" env:"LOGGING_DISPLAY"`
	LoggingStrip   string `help:"Strip backend logging level" default:"info" toml:"logging.strip" env:"LOGGING_STRIP"`
	LoggingLED     string `help:"Board LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingUpdater string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"cycle":   o.LoggingCycle,
			"fetch":   o.LoggingFetch,
			"status":  o.LoggingStatus,
			"display": o.LoggingDisplay,
			"strip":   o.LoggingStrip,
			"led":     o.LoggingLED,
			"api":     o.LoggingAPI,
			"http":    o.LoggingHTTP,
			"updater": o.LoggingUpdater,
		},
	}
}

func (o *Options) settings() cmd.Settings {
	return cmd.Settings{
		SourceURL:         o.SourceURL,
		SourceTimeout:     parseDuration(o.SourceTimeout, 0),
		CatalogFile:       o.LiftsCatalogFile,
		LEDCount:          o.StripLEDCount,
		UpdaterRepository: o.UpdaterRepository,
		UpdaterPrerelease: o.UpdaterPrerelease,
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI
	settings := &cmd.Settings{}

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		*settings = opts.settings()

		logger := logging.GetLogger("main")
		ctx, cancel := context.WithCancel(context.Background())

		var (
			mu  sync.Mutex
			svc *app
		)

		hooks.OnStart(func() {
			a, err := newApp(opts, logger)
			if err != nil {
				logger.Error("Failed to start", "error", err)
				os.Exit(1)
			}
			mu.Lock()
			svc = a
			mu.Unlock()

			if err := a.run(ctx); err != nil {
				logger.Error("Service failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			mu.Lock()
			defer mu.Unlock()
			if svc != nil {
				svc.stop()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateCheckCmd(settings))
	cli.Root().AddCommand(cmd.CreateLiftsCmd(settings))
	cli.Root().AddCommand(cmd.CreateUpdateCmd(settings))

	cli.Run()
}

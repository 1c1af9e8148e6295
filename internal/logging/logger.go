package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/coreos/go-systemd/v22/journal"
)

const historySize = 1000

// Logger is the subset of *slog.Logger that packages needing only
// leveled output depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the global level, output format and per-module overrides.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

func (c Config) levelFor(module string) slog.Level {
	level := levelOrDefault(c.Level, slog.LevelInfo)
	if s, ok := c.Modules[module]; ok {
		level = levelOrDefault(s, level)
	}
	return level
}

// LogCallback receives every entry after it is added to the history.
type LogCallback func(entry LogEntry)

// registry owns the module loggers and the destinations they write to.
type registry struct {
	mu      sync.RWMutex
	config  Config
	global  *slog.LevelVar
	loggers map[string]*slog.Logger
	levels  map[string]*slog.LevelVar
	history *History
	onEntry LogCallback

	out     io.Writer
	journal bool
}

var std = newRegistry(stdoutWriter(), journal.Enabled())

func newRegistry(out io.Writer, useJournal bool) *registry {
	return &registry{
		global:  new(slog.LevelVar),
		loggers: make(map[string]*slog.Logger),
		levels:  make(map[string]*slog.LevelVar),
		out:     out,
		journal: useJournal,
	}
}

// Initialize applies config, starts a fresh history and makes the default
// slog logger use the same destinations.
func Initialize(config Config) {
	std.initialize(config)
}

// SetLevels changes the global and per-module levels of existing loggers.
// The output format is fixed at Initialize.
func SetLevels(config Config) { std.setLevels(config) }

// ModuleLevels reports the effective level of every module logger.
func ModuleLevels() map[string]string { return std.moduleLevels() }

// SetLogCallback installs the live subscriber for new entries.
func SetLogCallback(callback LogCallback) {
	std.mu.Lock()
	std.onEntry = callback
	std.mu.Unlock()
}

// Recent returns entries from the history, oldest first. It returns nil
// before Initialize.
func Recent(f Filter) []LogEntry { return std.recent(f) }

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger { return std.logger(module) }

func (r *registry) initialize(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config = config
	r.history = NewHistory(historySize)
	r.global.Set(levelOrDefault(config.Level, slog.LevelInfo))

	// Loggers handed out earlier keep working; new ones pick up the format.
	for module, lv := range r.levels {
		lv.Set(config.levelFor(module))
		r.loggers[module] = slog.New(r.handler(lv)).With("module", module)
	}
	slog.SetDefault(slog.New(r.handler(r.global)))
}

func (r *registry) setLevels(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.config.Level = config.Level
	r.config.Modules = config.Modules
	r.global.Set(levelOrDefault(config.Level, slog.LevelInfo))
	for module, lv := range r.levels {
		lv.Set(r.config.levelFor(module))
	}
}

func (r *registry) moduleLevels() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.levels))
	for module, lv := range r.levels {
		out[module] = levelName(lv.Level())
	}
	return out
}

func (r *registry) logger(module string) *slog.Logger {
	r.mu.RLock()
	l, ok := r.loggers[module]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[module]; ok {
		return l
	}

	lv := new(slog.LevelVar)
	lv.Set(r.config.levelFor(module))
	l = slog.New(r.handler(lv)).With("module", module)
	r.loggers[module] = l
	r.levels[module] = lv
	return l
}

// handler builds the destinations for one level: stdout when connected,
// the journal when running under systemd, and always the history.
func (r *registry) handler(level slog.Leveler) slog.Handler {
	var dest fanout
	if r.out != nil {
		opts := &slog.HandlerOptions{Level: level}
		if r.config.Format == "json" {
			dest = append(dest, slog.NewJSONHandler(r.out, opts))
		} else {
			dest = append(dest, slog.NewTextHandler(r.out, opts))
		}
	}
	if r.journal {
		dest = append(dest, &journalHandler{level: level})
	}
	return append(dest, &entryHandler{sink: r.record, level: level})
}

// record is looked up per entry so loggers created before Initialize
// still reach the current history and callback.
func (r *registry) record(entry LogEntry) {
	r.mu.RLock()
	history, callback := r.history, r.onEntry
	r.mu.RUnlock()

	if history != nil {
		history.Add(entry)
	}
	if callback != nil {
		callback(entry)
	}
}

func (r *registry) recent(f Filter) []LogEntry {
	r.mu.RLock()
	history := r.history
	r.mu.RUnlock()
	if history == nil {
		return nil
	}
	return history.Entries(f)
}

// stdoutWriter returns os.Stdout unless it is closed or points at /dev/null.
func stdoutWriter() io.Writer {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return nil
	}
	if null, err := os.Stat(os.DevNull); err == nil && os.SameFile(fi, null) {
		return nil
	}
	return os.Stdout
}

func levelOrDefault(s string, fallback slog.Level) slog.Level {
	if level, ok := parseLevel(s); ok {
		return level
	}
	return fallback
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

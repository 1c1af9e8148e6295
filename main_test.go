package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/liftlights/internal/config"
	"github.com/smazurov/liftlights/internal/logging"
	"github.com/smazurov/liftlights/internal/strip"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"90s", 90 * time.Second},
		{"2m", 2 * time.Minute},
		{"", time.Minute},
		{"soon", time.Minute},
		{"-5s", time.Minute},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, time.Minute); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMergeLogging(t *testing.T) {
	base := logging.Config{
		Level:   "info",
		Format:  "json",
		Modules: map[string]string{"cycle": "info", "fetch": "warn"},
	}
	reloaded := logging.Config{
		Level:   "warn",
		Format:  "text",
		Modules: map[string]string{"fetch": "debug"},
	}

	got := mergeLogging(base, reloaded)

	if got.Level != "warn" {
		t.Errorf("Level = %q, want warn", got.Level)
	}
	if got.Format != "json" {
		t.Errorf("Format = %q, want json (format is fixed at startup)", got.Format)
	}
	if got.Modules["cycle"] != "info" || got.Modules["fetch"] != "debug" {
		t.Errorf("Modules = %v", got.Modules)
	}
	if base.Modules["fetch"] != "warn" {
		t.Error("base modules were modified")
	}
}

func TestMergeLoggingKeepsStartupLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\ncycle = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	reloaded, err := config.ReadLoggingConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	got := mergeLogging(logging.Config{Level: "debug", Format: "json"}, reloaded)

	if got.Level != "debug" {
		t.Errorf("Level = %q, want debug from startup", got.Level)
	}
	if got.Format != "json" {
		t.Errorf("Format = %q, want json", got.Format)
	}
	if got.Modules["cycle"] != "debug" {
		t.Errorf("Modules = %v", got.Modules)
	}
}

func TestOptionsSettings(t *testing.T) {
	opts := &Options{
		SourceURL:         "http://example.test/lifts",
		SourceTimeout:     "5s",
		LiftsCatalogFile:  "catalog.toml",
		StripLEDCount:     48,
		UpdaterRepository: "owner/repo",
	}

	s := opts.settings()
	if s.SourceURL != opts.SourceURL || s.SourceTimeout != 5*time.Second ||
		s.CatalogFile != "catalog.toml" || s.LEDCount != 48 || s.UpdaterRepository != "owner/repo" {
		t.Errorf("settings = %+v", s)
	}
}

type closeRecorder struct{ closed atomic.Bool }

func (c *closeRecorder) Render([]strip.RGB) error { return nil }
func (c *closeRecorder) Close() error {
	c.closed.Store(true)
	return nil
}

func newStoppingApp() (*app, *closeRecorder) {
	rec := &closeRecorder{}
	return &app{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		strip:    rec,
		loopDone: make(chan struct{}),
	}, rec
}

func TestCloseStripWaitsForLoop(t *testing.T) {
	a, rec := newStoppingApp()

	done := make(chan struct{})
	go func() {
		a.closeStrip(time.Second)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if rec.closed.Load() {
		t.Fatal("strip closed while the loop was still running")
	}

	close(a.loopDone)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("closeStrip did not return after the loop ended")
	}
	if !rec.closed.Load() {
		t.Error("strip not closed after the loop ended")
	}
}

func TestCloseStripLeavesStripOpenOnTimeout(t *testing.T) {
	a, rec := newStoppingApp()

	a.closeStrip(10 * time.Millisecond)

	if rec.closed.Load() {
		t.Error("strip closed although the loop never returned")
	}
}

// Package display owns the LED frame buffer and the status-to-colour mapping.
package display

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/smazurov/liftlights/internal/lifts"
	"github.com/smazurov/liftlights/internal/strip"
)

// HeartbeatIndex is the reserved slot owned by the cycle controller.
const HeartbeatIndex = 0

// Outcome describes what Apply did with an entry.
type Outcome string

// Apply outcomes.
const (
	OutcomeWritten    Outcome = "written"
	OutcomeUnmatched  Outcome = "unmatched"
	OutcomeOutOfRange Outcome = "out_of_range"
)

// Output is the hardware sink for committed frames.
type Output interface {
	Render(pixels []strip.RGB) error
}

// Driver stages colours in a frame buffer and commits them to an Output.
// Writes come from a single goroutine; reads (Snapshot, LastReports) may
// come from any goroutine.
type Driver struct {
	registry *lifts.Registry
	out      Output
	palette  Palette
	logger   *slog.Logger

	mu       sync.RWMutex
	frame    []Color
	reports  map[string]lifts.Report
	commits  uint64
	onCommit func([]Color)
}

// NewDriver creates a driver with an all-Black frame of ledCount slots.
func NewDriver(registry *lifts.Registry, out Output, ledCount int, palette Palette, logger *slog.Logger) (*Driver, error) {
	if ledCount <= 0 {
		return nil, fmt.Errorf("LED count must be positive, got %d", ledCount)
	}
	if need := registry.Len() + 1; ledCount < need {
		logger.Warn("Strip is shorter than the lift catalog, trailing lifts will not be shown",
			"led_count", ledCount,
			"needed", need)
	}

	return &Driver{
		registry: registry,
		out:      out,
		palette:  palette,
		logger:   logger,
		frame:    make([]Color, ledCount),
		reports:  make(map[string]lifts.Report),
	}, nil
}

// OnCommit registers a callback invoked with a copy of every committed frame.
func (d *Driver) OnCommit(fn func([]Color)) {
	d.mu.Lock()
	d.onCommit = fn
	d.mu.Unlock()
}

// Apply stages the colour for one lift. Unknown names and indices outside
// the frame leave the buffer untouched.
func (d *Driver) Apply(name string, report lifts.Report) Outcome {
	idx, ok := d.registry.Lookup(name)
	if !ok {
		d.logger.Warn("Lift not in registry, skipping", "lift", name, "status", report.String())
		return OutcomeUnmatched
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.reports[name] = report

	if idx <= HeartbeatIndex || idx >= len(d.frame) {
		d.logger.Debug("LED index outside strip, skipping", "lift", name, "index", idx, "led_count", len(d.frame))
		return OutcomeOutOfRange
	}

	c := ColorFor(report)
	d.frame[idx] = c
	d.logger.Debug("LED updated", "lift", name, "index", idx, "status", report.String(), "color", c.String())
	return OutcomeWritten
}

// SetHeartbeat writes the reserved slot.
func (d *Driver) SetHeartbeat(c Color) {
	d.mu.Lock()
	d.frame[HeartbeatIndex] = c
	d.mu.Unlock()
}

// Commit pushes the whole frame to the output.
func (d *Driver) Commit() error {
	d.mu.Lock()
	pixels := make([]strip.RGB, len(d.frame))
	for i, c := range d.frame {
		pixels[i] = d.palette.RGB(c)
	}
	d.commits++
	snapshot := d.snapshotLocked()
	onCommit := d.onCommit
	d.mu.Unlock()

	if err := d.out.Render(pixels); err != nil {
		return fmt.Errorf("failed to commit frame: %w", err)
	}

	if onCommit != nil {
		onCommit(snapshot)
	}
	return nil
}

// ClearAll sets every slot Black and commits.
func (d *Driver) ClearAll() error {
	d.mu.Lock()
	for i := range d.frame {
		d.frame[i] = Black
	}
	d.mu.Unlock()

	d.logger.Debug("All LEDs cleared")
	return d.Commit()
}

// Snapshot returns a copy of the staged frame.
func (d *Driver) Snapshot() []Color {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshotLocked()
}

func (d *Driver) snapshotLocked() []Color {
	out := make([]Color, len(d.frame))
	copy(out, d.frame)
	return out
}

// LastReports returns the most recent report seen for each registered lift.
func (d *Driver) LastReports() map[string]lifts.Report {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]lifts.Report, len(d.reports))
	for k, v := range d.reports {
		out[k] = v
	}
	return out
}

// Len returns the frame length.
func (d *Driver) Len() int {
	return len(d.frame)
}

// Commits returns how many frames have been committed.
func (d *Driver) Commits() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.commits
}

// Registry returns the lift registry the driver resolves names against.
func (d *Driver) Registry() *lifts.Registry {
	return d.registry
}

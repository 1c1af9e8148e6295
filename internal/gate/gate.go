// Package gate decides whether the display should be active at a given time.
package gate

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // boards often ship without zoneinfo
)

// Default operating window, inclusive on both ends.
const (
	DefaultStartHour = 8
	DefaultEndHour   = 17
)

// Clock supplies the current time. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the OS clock, which is kept in sync by the host's NTP client.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// Gate reports whether an hour falls inside the operating window.
type Gate struct {
	start int
	end   int
	loc   *time.Location
}

// New creates a gate for the inclusive hour window [start, end] in loc.
// A nil loc means UTC.
func New(start, end int, loc *time.Location) (*Gate, error) {
	if start < 0 || start > 23 || end < 0 || end > 23 {
		return nil, fmt.Errorf("operating window %d-%d is outside 0-23", start, end)
	}
	if start > end {
		return nil, fmt.Errorf("operating window start %d is after end %d", start, end)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{start: start, end: end, loc: loc}, nil
}

// Default returns the 08:00-17:59 window in loc.
func Default(loc *time.Location) *Gate {
	g, _ := New(DefaultStartHour, DefaultEndHour, loc)
	return g
}

// OpenAtHour reports whether hour is inside the window.
func (g *Gate) OpenAtHour(hour int) bool {
	return hour >= g.start && hour <= g.end
}

// Open reports whether t, in the gate's location, is inside the window.
func (g *Gate) Open(t time.Time) bool {
	return g.OpenAtHour(t.In(g.loc).Hour())
}

// String formats the window for logs.
func (g *Gate) String() string {
	return fmt.Sprintf("%02d:00-%02d:59 %s", g.start, g.end, g.loc)
}

// WaitForSync blocks until the clock reports a year of at least minYear.
// Unsynced boards boot at the epoch, so a plausible year means NTP has run.
func WaitForSync(ctx context.Context, clock Clock, minYear int, poll time.Duration) error {
	if clock.Now().Year() >= minYear {
		return nil
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("clock not synchronized: %w", ctx.Err())
		case <-ticker.C:
			if clock.Now().Year() >= minYear {
				return nil
			}
		}
	}
}

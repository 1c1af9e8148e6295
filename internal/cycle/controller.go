// Package cycle runs the poll loop: gate check, fetch, parse, update, commit.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/liftlights/internal/display"
	"github.com/smazurov/liftlights/internal/events"
	"github.com/smazurov/liftlights/internal/fetch"
	"github.com/smazurov/liftlights/internal/gate"
	"github.com/smazurov/liftlights/internal/lifts"
	"github.com/smazurov/liftlights/internal/status"
)

// DefaultInterval is the pause between cycles.
const DefaultInterval = 60 * time.Second

// Fetcher returns the raw status payload.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Gate decides whether the strip should show anything at t.
type Gate interface {
	Open(t time.Time) bool
}

// Display stages and commits the LED frame.
type Display interface {
	Apply(name string, report lifts.Report) display.Outcome
	SetHeartbeat(c display.Color)
	Commit() error
	ClearAll() error
}

// Publisher receives controller events.
type Publisher interface {
	Publish(ev events.Event)
}

// Recorder receives controller measurements.
type Recorder interface {
	CycleCompleted(outcome string, daytime bool)
	FetchObserved(d time.Duration)
	LEDWrite(result string)
	LiftStatus(lift, previous, current string)
	Updated(t time.Time)
}

// Config wires a Controller to its collaborators. Registry, Gate, Fetcher
// and Display are required.
type Config struct {
	Registry *lifts.Registry
	Gate     Gate
	Fetcher  Fetcher
	Display  Display
	Clock    gate.Clock
	Interval time.Duration

	// MinSyncYear makes Run wait until the clock reports at least this
	// year before the first cycle. Zero skips the wait.
	MinSyncYear  int
	SyncPoll     time.Duration
	ClearOnStart bool

	Events   Publisher
	Recorder Recorder
	// AfterCycle runs on the controller goroutine after every cycle.
	AfterCycle func(Result)
	Logger     *slog.Logger
}

type trigger struct {
	reply chan Result
}

// Controller owns the cycle state machine. All frame writes happen on the
// goroutine that calls RunCycle or Run.
type Controller struct {
	registry *lifts.Registry
	gate     Gate
	fetcher  Fetcher
	display  Display
	clock    gate.Clock
	interval time.Duration

	minSyncYear  int
	syncPoll     time.Duration
	clearOnStart bool

	events     Publisher
	recorder   Recorder
	afterCycle func(Result)
	logger     *slog.Logger

	triggers chan trigger

	mu       sync.RWMutex
	state    State
	last     Result
	cycles   uint64
	statuses map[string]lifts.Report
}

// New validates cfg and returns an idle controller.
func New(cfg Config) (*Controller, error) {
	switch {
	case cfg.Registry == nil:
		return nil, errors.New("cycle: registry is required")
	case cfg.Gate == nil:
		return nil, errors.New("cycle: gate is required")
	case cfg.Fetcher == nil:
		return nil, errors.New("cycle: fetcher is required")
	case cfg.Display == nil:
		return nil, errors.New("cycle: display is required")
	}

	c := &Controller{
		registry:     cfg.Registry,
		gate:         cfg.Gate,
		fetcher:      cfg.Fetcher,
		display:      cfg.Display,
		clock:        cfg.Clock,
		interval:     cfg.Interval,
		minSyncYear:  cfg.MinSyncYear,
		syncPoll:     cfg.SyncPoll,
		clearOnStart: cfg.ClearOnStart,
		events:       cfg.Events,
		recorder:     cfg.Recorder,
		afterCycle:   cfg.AfterCycle,
		logger:       cfg.Logger,
		triggers:     make(chan trigger),
		state:        StateIdle,
		statuses:     make(map[string]lifts.Report),
	}
	if c.clock == nil {
		c.clock = gate.SystemClock{}
	}
	if c.interval <= 0 {
		c.interval = DefaultInterval
	}
	if c.syncPoll <= 0 {
		c.syncPoll = time.Second
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Run waits for clock sync, optionally clears the strip, then runs one cycle
// immediately and one per interval until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	if c.minSyncYear > 0 {
		c.logger.Info("Waiting for clock sync", "min_year", c.minSyncYear)
		if err := gate.WaitForSync(ctx, c.clock, c.minSyncYear, c.syncPoll); err != nil {
			return fmt.Errorf("clock sync: %w", err)
		}
		c.logger.Info("Clock synced", "now", c.clock.Now().Format(time.RFC3339))
	}

	if c.clearOnStart {
		if err := c.display.ClearAll(); err != nil {
			c.logger.Warn("Startup clear failed", "error", err)
		}
	}

	c.logger.Info("Cycle controller started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunCycle(ctx, c.clock.Now())

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Cycle controller stopped")
			return nil
		case <-ticker.C:
			c.RunCycle(ctx, c.clock.Now())
		case t := <-c.triggers:
			c.logger.Info("Manual cycle requested")
			t.reply <- c.RunCycle(ctx, c.clock.Now())
		}
	}
}

// Trigger asks the running loop for an immediate cycle and waits for its result.
func (c *Controller) Trigger(ctx context.Context) (Result, error) {
	t := trigger{reply: make(chan Result, 1)}
	select {
	case c.triggers <- t:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case r := <-t.reply:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// RunCycle executes one full cycle for wall-clock time now.
func (c *Controller) RunCycle(ctx context.Context, now time.Time) Result {
	r := Result{Started: now}

	c.setState(StateGating)
	r.Daytime = c.gate.Open(now)

	if !r.Daytime {
		c.clear(&r)
	} else {
		c.update(ctx, &r)
	}

	r.Finished = c.clock.Now()
	c.finish(r)
	return r
}

func (c *Controller) clear(r *Result) {
	c.setState(StateClearing)
	c.logger.Debug("Outside operating window, clearing strip")

	if err := c.display.ClearAll(); err != nil {
		c.logger.Error("Failed to clear strip", "error", err)
		r.fail(OutcomeCommitFailed, err)
		return
	}
	r.Outcome = OutcomeCleared
}

func (c *Controller) update(ctx context.Context, r *Result) {
	c.setState(StateFetching)
	start := time.Now()
	payload, err := c.fetcher.Fetch(ctx)
	c.recorder.FetchObserved(time.Since(start))
	if err != nil {
		c.logger.Warn("No status this cycle", "error", err)
		r.fail(OutcomeFetchFailed, err)
		c.publishFetchFailure(err)
		return
	}

	c.setState(StateParsing)
	entries, err := status.Parse(payload)
	if err != nil {
		c.logger.Warn("Failed to parse status payload", "error", err, "bytes", len(payload))
		r.fail(OutcomeParseFailed, err)
		return
	}
	r.Entries = len(entries)
	if len(entries) == 0 {
		c.logger.Info("Status payload lists no lifts")
		r.Outcome = OutcomeNoEntries
		return
	}

	c.setState(StateUpdating)
	c.display.SetHeartbeat(display.Black)

	final := make(map[string]lifts.Report, len(entries))
	var order []string
	for _, e := range entries {
		outcome := c.display.Apply(e.Name, e.Report)
		c.recorder.LEDWrite(string(outcome))
		switch outcome {
		case display.OutcomeWritten:
			r.Written++
		case display.OutcomeUnmatched:
			r.Unmatched++
			continue
		case display.OutcomeOutOfRange:
			r.OutOfRange++
		}
		if _, seen := final[e.Name]; !seen {
			order = append(order, e.Name)
		}
		final[e.Name] = e.Report
	}

	if err := c.display.Commit(); err != nil {
		c.logger.Error("Failed to commit frame", "error", err)
		r.fail(OutcomeCommitFailed, err)
		return
	}

	r.Outcome = OutcomeUpdated
	c.recorder.Updated(r.Started)
	c.logger.Info("Strip updated",
		"entries", r.Entries,
		"written", r.Written,
		"unmatched", r.Unmatched,
		"out_of_range", r.OutOfRange)

	for _, name := range order {
		c.trackStatus(name, final[name], r.Started)
	}
}

// trackStatus remembers the report and announces it when it differs from the
// previous one for the same lift.
func (c *Controller) trackStatus(name string, report lifts.Report, at time.Time) {
	c.mu.Lock()
	previous, known := c.statuses[name]
	c.statuses[name] = report
	c.mu.Unlock()

	if known && previous == report {
		return
	}

	prev := ""
	if known {
		prev = previous.String()
	}
	current := report.String()
	c.recorder.LiftStatus(name, prev, current)

	idx, _ := c.registry.Lookup(name)
	c.logger.Debug("Lift status changed", "lift", name, "from", prev, "to", current)
	c.publish(events.LiftStatusChangedEvent{
		Lift:      name,
		Index:     idx,
		Previous:  prev,
		Status:    current,
		Color:     display.ColorFor(report).String(),
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}

func (c *Controller) publishFetchFailure(err error) {
	code := "UNKNOWN"
	var fe *fetch.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	url := ""
	if u, ok := c.fetcher.(interface{ URL() string }); ok {
		url = u.URL()
	}
	c.publish(events.FetchFailedEvent{
		URL:       url,
		Code:      code,
		Error:     err.Error(),
		Timestamp: c.clock.Now().UTC().Format(time.RFC3339),
	})
}

func (c *Controller) finish(r Result) {
	c.recorder.CycleCompleted(string(r.Outcome), r.Daytime)

	c.mu.Lock()
	c.last = r
	c.cycles++
	c.mu.Unlock()
	c.setState(StateIdle)

	c.publish(events.CycleCompletedEvent{
		Outcome:   string(r.Outcome),
		Daytime:   r.Daytime,
		Entries:   r.Entries,
		Written:   r.Written,
		Timestamp: r.Finished.UTC().Format(time.RFC3339),
	})

	if c.afterCycle != nil {
		c.afterCycle(r)
	}
}

func (c *Controller) publish(ev events.Event) {
	if c.events != nil {
		c.events.Publish(ev)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Last returns the result of the most recent cycle and how many cycles ran.
func (c *Controller) Last() (Result, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.cycles
}

// Interval returns the pause between cycles.
func (c *Controller) Interval() time.Duration {
	return c.interval
}

type nopRecorder struct{}

func (nopRecorder) CycleCompleted(string, bool)       {}
func (nopRecorder) FetchObserved(time.Duration)       {}
func (nopRecorder) LEDWrite(string)                   {}
func (nopRecorder) LiftStatus(string, string, string) {}
func (nopRecorder) Updated(time.Time)                 {}

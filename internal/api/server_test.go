package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/liftlights/internal/cycle"
	"github.com/smazurov/liftlights/internal/display"
	"github.com/smazurov/liftlights/internal/events"
	"github.com/smazurov/liftlights/internal/lifts"
	"github.com/smazurov/liftlights/internal/logging"
	"github.com/smazurov/liftlights/internal/strip"
	"github.com/smazurov/liftlights/internal/updater"
)

type nullOutput struct{}

func (nullOutput) Render([]strip.RGB) error { return nil }

type fakeRunner struct {
	mu     sync.Mutex
	result cycle.Result
	err    error
	calls  int
	last   cycle.Result
	cycles uint64
	state  cycle.State
}

func (f *fakeRunner) Trigger(context.Context) (cycle.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeRunner) Last() (cycle.Result, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.cycles
}

func (f *fakeRunner) State() cycle.State {
	if f.state == "" {
		return cycle.StateIdle
	}
	return f.state
}

func (f *fakeRunner) Interval() time.Duration { return time.Minute }

type fakeLEDs struct {
	mu      sync.Mutex
	err     error
	ledType string
	enabled bool
	pattern string
}

func (f *fakeLEDs) Set(ledType string, enabled bool, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.ledType, f.enabled, f.pattern = ledType, enabled, pattern
	return nil
}

func (f *fakeLEDs) Available() []string { return []string{"act", "pwr"} }
func (f *fakeLEDs) Patterns() []string  { return []string{"solid", "blink", "heartbeat"} }

type fakeUpdater struct {
	enabled bool
	reason  string
	info    *updater.UpdateInfo
	err     error
}

func (f *fakeUpdater) Enabled() bool          { return f.enabled }
func (f *fakeUpdater) DisabledReason() string { return f.reason }
func (f *fakeUpdater) Check(context.Context) (*updater.UpdateInfo, error) {
	return f.info, f.err
}
func (f *fakeUpdater) Apply(context.Context) (*updater.UpdateInfo, error) {
	return f.info, f.err
}
func (f *fakeUpdater) Rollback(context.Context) error { return f.err }
func (f *fakeUpdater) Status() updater.Status {
	return updater.Status{State: updater.StateIdle, Enabled: f.enabled, DisabledReason: f.reason}
}

type testEnv struct {
	server *Server
	runner *fakeRunner
	driver *display.Driver
	bus    *events.Bus
}

func newTestEnv(t *testing.T, configure func(*Options)) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := lifts.NewRegistry([]string{"Chavannes", "Combettes", "Chavannes", "Derby"})
	driver, err := display.NewDriver(registry, nullOutput{}, 4, display.NewPalette(255), logger)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	env := &testEnv{
		runner: &fakeRunner{},
		driver: driver,
		bus:    events.New(),
	}
	opts := &Options{
		Controller: env.runner,
		Frame:      driver,
		EventBus:   env.bus,
	}
	if configure != nil {
		configure(opts)
	}
	env.server = NewServer(opts)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct{ Status string }
	decode(t, rec, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/version", "")
	var body struct{ Name string }
	decode(t, rec, &body)
	if body.Name != "liftlights" {
		t.Errorf("name = %q, want liftlights", body.Name)
	}
}

func TestListLifts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.driver.Apply("Combettes", lifts.Reported(lifts.StatusOpen))
	env.driver.Apply("Derby", lifts.Reported(lifts.StatusClosed))
	if err := env.driver.Commit(); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/api/lifts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Lifts []struct {
			Name      string
			Index     int
			Displayed bool
			Status    string
			Color     string
		}
		Count      int
		Duplicates []string
	}
	decode(t, rec, &body)

	if body.Count != 3 {
		t.Fatalf("count = %d, want 3 (repeat of Chavannes dropped)", body.Count)
	}
	if len(body.Duplicates) != 1 || body.Duplicates[0] != "Chavannes" {
		t.Errorf("duplicates = %v, want [Chavannes]", body.Duplicates)
	}

	tests := []struct {
		name      string
		index     int
		displayed bool
		status    string
		color     string
	}{
		{"Chavannes", 1, true, "", "black"},
		{"Combettes", 2, true, "open", "green"},
		{"Derby", 4, false, "closed", "black"},
	}
	for i, tt := range tests {
		got := body.Lifts[i]
		if got.Name != tt.name || got.Index != tt.index || got.Displayed != tt.displayed ||
			got.Status != tt.status || got.Color != tt.color {
			t.Errorf("lift %d = %+v, want %+v", i, got, tt)
		}
	}
}

func TestFrame(t *testing.T) {
	env := newTestEnv(t, nil)
	env.driver.Apply("Chavannes", lifts.Reported(lifts.StatusHold))
	if err := env.driver.Commit(); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/api/frame", "")
	var body struct {
		Colors    []string
		Heartbeat string
		LEDCount  int `json:"led_count"`
		Commits   uint64
	}
	decode(t, rec, &body)

	want := []string{"black", "yellow", "black", "black"}
	if strings.Join(body.Colors, ",") != strings.Join(want, ",") {
		t.Errorf("colors = %v, want %v", body.Colors, want)
	}
	if body.Heartbeat != "black" || body.LEDCount != 4 || body.Commits != 1 {
		t.Errorf("frame = %+v", body)
	}
}

func TestCycleStatus(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/cycle", "")
	var before map[string]any
	decode(t, rec, &before)
	if _, ok := before["last"]; ok {
		t.Errorf("last present before any cycle: %v", before)
	}

	env.runner.last = cycle.Result{Outcome: cycle.OutcomeCleared}
	env.runner.cycles = 3

	rec = env.do(t, http.MethodGet, "/api/cycle", "")
	var after struct {
		State  string
		Cycles uint64
		Last   *struct{ Outcome string }
	}
	decode(t, rec, &after)
	if after.State != "idle" || after.Cycles != 3 || after.Last == nil || after.Last.Outcome != "cleared" {
		t.Errorf("cycle status = %+v", after)
	}
}

func TestRunCycle(t *testing.T) {
	tests := []struct {
		name       string
		result     cycle.Result
		err        error
		wantStatus int
	}{
		{"updated", cycle.Result{Outcome: cycle.OutcomeUpdated, Written: 2}, nil, http.StatusOK},
		{"fetch failure is still a result", cycle.Result{Outcome: cycle.OutcomeFetchFailed, Error: "timeout"}, nil, http.StatusOK},
		{"loop not running", cycle.Result{}, context.DeadlineExceeded, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.runner.result = tt.result
			env.runner.err = tt.err

			rec := env.do(t, http.MethodPost, "/api/cycle", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.runner.calls != 1 {
				t.Errorf("trigger calls = %d, want 1", env.runner.calls)
			}
			if tt.err != nil {
				return
			}
			var body struct{ Outcome string }
			decode(t, rec, &body)
			if body.Outcome != string(tt.result.Outcome) {
				t.Errorf("outcome = %q, want %q", body.Outcome, tt.result.Outcome)
			}
		})
	}
}

func TestLEDRoutes(t *testing.T) {
	leds := &fakeLEDs{}
	env := newTestEnv(t, func(o *Options) {
		o.LEDController = leds
		o.StatusLED = "act"
	})

	rec := env.do(t, http.MethodGet, "/api/leds/capabilities", "")
	var caps struct {
		AvailableTypes []string `json:"available_types"`
		StatusLED      string   `json:"status_led"`
	}
	decode(t, rec, &caps)
	if len(caps.AvailableTypes) != 2 || caps.StatusLED != "act" {
		t.Errorf("capabilities = %+v", caps)
	}

	rec = env.do(t, http.MethodPost, "/api/leds", `{"type":"act","enabled":true,"pattern":"blink"}`)
	if rec.Code >= 300 {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if leds.ledType != "act" || !leds.enabled || leds.pattern != "blink" {
		t.Errorf("LED set to %s/%v/%s", leds.ledType, leds.enabled, leds.pattern)
	}

	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"unknown led", `{"type":"nope","enabled":true}`, nil, http.StatusUnprocessableEntity},
		{"unknown pattern", `{"type":"pwr","enabled":true,"pattern":"rainbow"}`, nil, http.StatusUnprocessableEntity},
		{"controller error", `{"type":"pwr","enabled":false}`, errors.New("permission denied"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leds.mu.Lock()
			leds.err = tt.err
			leds.mu.Unlock()
			if rec := env.do(t, http.MethodPost, "/api/leds", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLEDRoutesAbsentWithoutController(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/leds/capabilities", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateRoutes(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, func(o *Options) {
			o.Updater = &fakeUpdater{reason: "read-only install"}
		})
		for _, route := range []struct{ method, path string }{
			{http.MethodGet, "/api/update/check"},
			{http.MethodPost, "/api/update/apply"},
			{http.MethodPost, "/api/update/rollback"},
		} {
			rec := env.do(t, route.method, route.path, "")
			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("%s %s = %d, want 503", route.method, route.path, rec.Code)
			}
		}

		rec := env.do(t, http.MethodGet, "/api/update/status", "")
		var status struct {
			Enabled        bool
			DisabledReason string `json:"disabled_reason"`
		}
		decode(t, rec, &status)
		if status.Enabled || status.DisabledReason != "read-only install" {
			t.Errorf("status = %+v", status)
		}
	})

	t.Run("check", func(t *testing.T) {
		env := newTestEnv(t, func(o *Options) {
			o.Updater = &fakeUpdater{enabled: true, info: &updater.UpdateInfo{
				CurrentVersion:  "v0.3.0",
				LatestVersion:   "v0.4.0",
				UpdateAvailable: true,
			}}
		})
		rec := env.do(t, http.MethodGet, "/api/update/check", "")
		var info struct {
			LatestVersion   string `json:"latest_version"`
			UpdateAvailable bool   `json:"update_available"`
		}
		decode(t, rec, &info)
		if info.LatestVersion != "v0.4.0" || !info.UpdateAvailable {
			t.Errorf("info = %+v", info)
		}
	})
}

func TestMapUpdateError(t *testing.T) {
	tests := []struct {
		code updater.Code
		want int
	}{
		{updater.ErrCodeInvalidState, http.StatusConflict},
		{updater.ErrCodeNoUpdate, http.StatusBadRequest},
		{updater.ErrCodeNotFound, http.StatusNotFound},
		{updater.ErrCodeNoBackup, http.StatusNotFound},
		{updater.ErrCodeDisabled, http.StatusServiceUnavailable},
		{updater.ErrCodeApplyFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := mapUpdateError(&updater.Error{Code: tt.code, Message: "x"})
			var se interface{ GetStatus() int }
			if !errors.As(err, &se) {
				t.Fatalf("%T has no status", err)
			}
			if se.GetStatus() != tt.want {
				t.Errorf("status = %d, want %d", se.GetStatus(), tt.want)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodOptions, "/api/cycle", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("allow methods = %q, want POST listed", got)
	}
}

func TestMetricsRoute(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "liftlights_cycles_total 1\n")
		})
	})

	rec := env.do(t, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), "liftlights_cycles_total") {
		t.Errorf("metrics body = %q", rec.Body.String())
	}
}

func TestLogs(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info", Format: "text"})
	logging.GetLogger("cycle").Info("Strip updated", "written", 3)
	logging.GetLogger("fetch").Warn("Status request failed")

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/logs?module=cycle", "")
	var body struct {
		Entries []struct {
			Module  string
			Message string
		}
		Count int
	}
	decode(t, rec, &body)

	if body.Count == 0 {
		t.Fatal("no cycle entries returned")
	}
	for _, e := range body.Entries {
		if e.Module != "cycle" {
			t.Errorf("entry from module %q leaked through filter", e.Module)
		}
	}

	rec = env.do(t, http.MethodGet, "/api/logs?level=warn&limit=1", "")
	var warned struct {
		Entries []struct {
			Level   string
			Message string
		}
		Count int
	}
	decode(t, rec, &warned)
	if warned.Count != 1 || warned.Entries[0].Message != "Status request failed" {
		t.Errorf("level filter returned %+v", warned)
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
		want   slog.Level
	}{
		{"GET", "/api/lifts", 200, slog.LevelInfo},
		{"GET", "/api/frame", 200, slog.LevelDebug},
		{"POST", "/api/cycle", 200, slog.LevelInfo},
		{"OPTIONS", "/api/cycle", 204, slog.LevelDebug},
		{"GET", "/api/frame", 404, slog.LevelWarn},
		{"POST", "/api/update/apply", 500, slog.LevelError},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.method, tt.path, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s %s %d) = %v, want %v", tt.method, tt.path, tt.status, got, tt.want)
		}
	}
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	nextEvent := func() string {
		for lines.Scan() {
			if name, ok := strings.CutPrefix(lines.Text(), "event:"); ok {
				return strings.TrimSpace(name)
			}
		}
		return ""
	}

	if got := nextEvent(); got != "frame-committed" {
		t.Fatalf("first event = %q, want frame-committed", got)
	}

	env.bus.Publish(events.CycleCompletedEvent{Outcome: "updated", Daytime: true})

	if got := nextEvent(); got != "cycle-completed" {
		t.Errorf("second event = %q, want cycle-completed", got)
	}
}

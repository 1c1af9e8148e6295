package gate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func TestGate_Boundaries(t *testing.T) {
	g := Default(time.UTC)

	tests := []struct {
		hour int
		want bool
	}{
		{0, false},
		{7, false},
		{8, true},
		{12, true},
		{17, true},
		{18, false},
		{22, false},
		{23, false},
	}

	for _, tt := range tests {
		if got := g.OpenAtHour(tt.hour); got != tt.want {
			t.Errorf("OpenAtHour(%d) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestGate_OpenUsesLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatal(err)
	}
	g := Default(paris)

	// 07:30 UTC in January is 08:30 in Paris.
	ts := time.Date(2025, time.January, 15, 7, 30, 0, 0, time.UTC)
	if !g.Open(ts) {
		t.Errorf("Open(%v) = false, want true in %v", ts, paris)
	}
	if Default(time.UTC).Open(ts) {
		t.Errorf("Open(%v) = true in UTC, want false", ts)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		wantErr    bool
	}{
		{"default", 8, 17, false},
		{"single hour", 12, 12, false},
		{"negative", -1, 17, true},
		{"past midnight", 8, 24, true},
		{"inverted", 18, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.end, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %d) error = %v, wantErr %v", tt.start, tt.end, err, tt.wantErr)
			}
		})
	}
}

type steppingClock struct {
	calls atomic.Int32
}

func (c *steppingClock) Now() time.Time {
	if c.calls.Add(1) < 3 {
		return time.Unix(0, 0)
	}
	return time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)
}

func TestWaitForSync(t *testing.T) {
	t.Run("already synced", func(t *testing.T) {
		clock := fixedClock{t: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)}
		if err := WaitForSync(context.Background(), clock, 2024, time.Millisecond); err != nil {
			t.Fatalf("WaitForSync() = %v", err)
		}
	})

	t.Run("syncs later", func(t *testing.T) {
		clock := &steppingClock{}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := WaitForSync(ctx, clock, 2024, 5*time.Millisecond); err != nil {
			t.Fatalf("WaitForSync() = %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		clock := fixedClock{t: time.Unix(0, 0)}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if err := WaitForSync(ctx, clock, 2024, 5*time.Millisecond); err == nil {
			t.Fatal("expected error when context expires before sync")
		}
	})
}

package logging

import (
	"log/slog"
	"sync"
	"time"
)

// LogEntry is one record as kept in the history and sent to live subscribers.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Filter selects entries from a History. The zero value matches everything.
type Filter struct {
	Module   string
	MinLevel string
	// Limit keeps only the newest matches. Zero means no limit.
	Limit int
}

func (f Filter) match(e LogEntry) bool {
	if f.Module != "" && e.Module != f.Module {
		return false
	}
	if f.MinLevel == "" {
		return true
	}
	return levelOrDefault(e.Level, slog.LevelInfo) >= levelOrDefault(f.MinLevel, slog.LevelDebug)
}

// History holds the most recent entries in a fixed-size ring.
type History struct {
	mu   sync.RWMutex
	ring []LogEntry
	next int
	full bool
}

// NewHistory creates a history that keeps up to capacity entries.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{ring: make([]LogEntry, capacity)}
}

// Add stores e, evicting the oldest entry once the ring is full.
func (h *History) Add(e LogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ring[h.next] = e
	h.next++
	if h.next == len(h.ring) {
		h.next = 0
		h.full = true
	}
}

// Len returns the number of entries held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.ring)
	}
	return h.next
}

// Entries returns the entries matching f, oldest first.
func (h *History) Entries(f Filter) []LogEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []LogEntry
	collect := func(part []LogEntry) {
		for _, e := range part {
			if f.match(e) {
				out = append(out, e)
			}
		}
	}
	if h.full {
		collect(h.ring[h.next:])
	}
	collect(h.ring[:h.next])

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

package events

// Event type constants for kelindar/event.
const (
	TypeCycleCompleted uint32 = iota + 1
	TypeFetchFailed
	TypeFrameCommitted
	TypeLiftStatusChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CycleCompletedEvent is published at the end of every controller cycle.
type CycleCompletedEvent struct {
	Outcome   string `json:"outcome" example:"updated" doc:"Cycle outcome: updated, cleared, fetch_failed, parse_failed, no_entries, commit_failed"`
	Daytime   bool   `json:"daytime" example:"true" doc:"Whether the operating window was open"`
	Entries   int    `json:"entries" example:"46" doc:"Entries decoded from the payload"`
	Written   int    `json:"written" example:"44" doc:"LEDs written this cycle"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Cycle end time"`
}

// Type returns the event type identifier for CycleCompletedEvent.
func (e CycleCompletedEvent) Type() uint32 { return TypeCycleCompleted }

// FetchFailedEvent is published when a cycle gets no payload.
type FetchFailedEvent struct {
	URL       string `json:"url" doc:"Status endpoint"`
	Code      string `json:"code" example:"HTTP_STATUS" doc:"Failure code"`
	Error     string `json:"error" doc:"Failure detail"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Failure time"`
}

// Type returns the event type identifier for FetchFailedEvent.
func (e FetchFailedEvent) Type() uint32 { return TypeFetchFailed }

// FrameCommittedEvent carries the colours pushed to the strip, by LED index.
type FrameCommittedEvent struct {
	Colors    []string `json:"colors" doc:"Colour name per LED index"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Commit time"`
}

// Type returns the event type identifier for FrameCommittedEvent.
func (e FrameCommittedEvent) Type() uint32 { return TypeFrameCommitted }

// LiftStatusChangedEvent is published when a lift reports a status different
// from the one it last reported.
type LiftStatusChangedEvent struct {
	Lift      string `json:"lift" example:"Combettes" doc:"Lift name"`
	Index     int    `json:"index" example:"12" doc:"LED index"`
	Previous  string `json:"previous" example:"closed" doc:"Previous status, empty if first report"`
	Status    string `json:"status" example:"open" doc:"New status, or absent"`
	Color     string `json:"color" example:"green" doc:"Colour now shown"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Change time"`
}

// Type returns the event type identifier for LiftStatusChangedEvent.
func (e LiftStatusChangedEvent) Type() uint32 { return TypeLiftStatusChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

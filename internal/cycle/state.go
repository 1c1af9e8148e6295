package cycle

import "time"

// State is a controller state.
type State string

// Controller states. A cycle moves Idle → Gating → Fetching → Parsing →
// Updating → Idle inside the window, or Idle → Gating → Clearing → Idle
// outside it. Fetch or parse failures return straight to Idle.
const (
	StateIdle     State = "idle"
	StateGating   State = "gating"
	StateFetching State = "fetching"
	StateParsing  State = "parsing"
	StateUpdating State = "updating"
	StateClearing State = "clearing"
)

// Outcome summarises how a cycle ended.
type Outcome string

// Cycle outcomes.
const (
	OutcomeUpdated      Outcome = "updated"
	OutcomeCleared      Outcome = "cleared"
	OutcomeFetchFailed  Outcome = "fetch_failed"
	OutcomeParseFailed  Outcome = "parse_failed"
	OutcomeNoEntries    Outcome = "no_entries"
	OutcomeCommitFailed Outcome = "commit_failed"
)

// Result describes one finished cycle.
type Result struct {
	Outcome    Outcome   `json:"outcome" example:"updated" doc:"How the cycle ended"`
	Daytime    bool      `json:"daytime" doc:"Whether the operating window was open"`
	Entries    int       `json:"entries" doc:"Entries decoded from the payload"`
	Written    int       `json:"written" doc:"LEDs written"`
	Unmatched  int       `json:"unmatched" doc:"Entries naming lifts outside the catalog"`
	OutOfRange int       `json:"out_of_range" doc:"Catalog lifts beyond the end of the strip"`
	Error      string    `json:"error,omitempty" doc:"Failure detail"`
	Started    time.Time `json:"started" doc:"Cycle start"`
	Finished   time.Time `json:"finished" doc:"Cycle end"`
}

// OK reports whether the cycle left the strip showing what it should.
func (r Result) OK() bool {
	return r.Outcome == OutcomeUpdated || r.Outcome == OutcomeCleared
}

func (r *Result) fail(o Outcome, err error) {
	r.Outcome = o
	r.Error = err.Error()
}

package lifts

// Status is the operational state token reported for a lift.
// Values outside the known set are kept verbatim so they can be logged.
type Status string

// Known status tokens as reported by the status API.
const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusHold      Status = "hold"
	StatusScheduled Status = "scheduled"
)

// Report is a status as decoded from a payload, where Present is false
// when the payload carried null (or nothing) for the lift.
type Report struct {
	Status  Status
	Present bool
}

// Reported wraps a non-null status token.
func Reported(s Status) Report {
	return Report{Status: s, Present: true}
}

// Absent is the report for a lift whose status was null.
func Absent() Report {
	return Report{}
}

// String returns the token, or "absent" when no status was reported.
func (r Report) String() string {
	if !r.Present {
		return "absent"
	}
	return string(r.Status)
}

// Known reports whether the status is one of the recognized tokens.
func (s Status) Known() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusHold, StatusScheduled:
		return true
	default:
		return false
	}
}

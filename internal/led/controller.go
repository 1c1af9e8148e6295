package led

// Patterns understood by every Controller that reports them.
const (
	PatternSolid     = "solid"
	PatternBlink     = "blink"
	PatternHeartbeat = "heartbeat"
)

// Controller switches the on-board LEDs of the single-board computer that
// drives the strip. The Manager uses one of them as the cycle-health
// indicator; the API exposes all of them for manual overrides.
//
// Set with enabled false turns the LED off whatever the pattern. An empty
// pattern leaves the current trigger alone and only changes brightness.
// Boards without controllable LEDs report no types and accept every Set.
type Controller interface {
	Set(ledType string, enabled bool, pattern string) error
	Available() []string
	Patterns() []string
}

package led

import "github.com/smazurov/liftlights/internal/logging"

// noop implements Controller for boards without a usable LED.
type noop struct {
	logger logging.Logger
}

func newNoop(logger logging.Logger) *noop {
	return &noop{logger: logger}
}

// Set logs the request and does nothing else.
func (n *noop) Set(ledType string, enabled bool, pattern string) error {
	if n.logger != nil {
		n.logger.Debug("LED control not available (no-op)",
			"led_type", ledType,
			"enabled", enabled,
			"pattern", pattern)
	}
	return nil
}

// Available returns an empty list.
func (n *noop) Available() []string {
	return []string{}
}

// Patterns returns an empty list.
func (n *noop) Patterns() []string {
	return []string{}
}

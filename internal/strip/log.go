package strip

import (
	"log/slog"
	"sync"
)

// logStrip implements Strip for boards without a strip attached. It logs
// how many pixels each frame changes.
type logStrip struct {
	logger *slog.Logger
	mu     sync.Mutex
	last   []RGB
	frames int
}

func newLog(logger *slog.Logger) *logStrip {
	return &logStrip{logger: logger}
}

// Render logs the frame but drives no hardware.
func (s *logStrip) Render(pixels []RGB) error {
	s.mu.Lock()
	changed := 0
	for i, p := range pixels {
		if i >= len(s.last) || s.last[i] != p {
			changed++
		}
	}
	s.last = append(s.last[:0], pixels...)
	s.frames++
	n := s.frames
	s.mu.Unlock()

	s.logger.Debug("Frame rendered (no hardware)", "frame", n, "leds", len(pixels), "changed", changed)
	return nil
}

// Close is a no-op.
func (s *logStrip) Close() error {
	return nil
}

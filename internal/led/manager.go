package led

import (
	"log/slog"
	"sync"

	"github.com/smazurov/liftlights/internal/cycle"
	"github.com/smazurov/liftlights/internal/events"
)

// Manager mirrors controller health on a board LED: solid while the strip is
// current, blinking when the last cycle could not update it, off outside
// the operating window.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	ledType     string
	unsubscribe func()
	logger      *slog.Logger

	mu      sync.Mutex
	current indication
	applied bool
}

type indication struct {
	enabled bool
	pattern string
}

// NewManager creates a manager driving ledType. An empty ledType picks the
// first LED the controller reports.
func NewManager(controller Controller, eventBus *events.Bus, ledType string, logger *slog.Logger) *Manager {
	if ledType == "" {
		if available := controller.Available(); len(available) > 0 {
			ledType = available[0]
		}
	}
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		ledType:    ledType,
		logger:     logger,
	}
}

// Start begins listening for cycle results.
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.CycleCompletedEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("LED manager started", "led", m.ledType)
}

// Stop unsubscribes from cycle results.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.logger.Info("LED manager stopped")
}

func (m *Manager) handleEvent(e events.CycleCompletedEvent) {
	if m.ledType == "" {
		return
	}

	want := indicationFor(cycle.Outcome(e.Outcome))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied && want == m.current {
		return
	}

	if err := m.controller.Set(m.ledType, want.enabled, want.pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "led", m.ledType, "pattern", want.pattern, "error", err)
		return
	}
	m.current = want
	m.applied = true
	m.logger.Debug("Status LED updated", "outcome", e.Outcome, "enabled", want.enabled, "pattern", want.pattern)
}

func indicationFor(outcome cycle.Outcome) indication {
	switch outcome {
	case cycle.OutcomeUpdated:
		return indication{enabled: true, pattern: PatternSolid}
	case cycle.OutcomeCleared:
		return indication{enabled: false, pattern: PatternSolid}
	default:
		return indication{enabled: true, pattern: PatternBlink}
	}
}

// LEDType returns the LED the manager drives.
func (m *Manager) LEDType() string {
	return m.ledType
}

package events

import (
	"sync/atomic"

	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
	dropped    atomic.Uint64
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(CycleCompletedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case CycleCompletedEvent:
		event.Publish(b.dispatcher, e)
	case FetchFailedEvent:
		event.Publish(b.dispatcher, e)
	case FrameCommittedEvent:
		event.Publish(b.dispatcher, e)
	case LiftStatusChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects the events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(CycleCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FetchFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameCommittedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LiftStatusChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

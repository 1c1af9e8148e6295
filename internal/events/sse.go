package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch for an SSE stream.
// A client that falls behind loses events instead of stalling the cycle
// controller that publishes them; each loss is counted in Bus.Dropped.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			bus.dropped.Add(1)
		}
	})
}

// Dropped reports how many events slow SSE clients have missed.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

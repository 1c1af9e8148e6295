package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/liftlights/internal/events"
)

// registerSSERoutes registers the board event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of cycle results, committed frames, lift status changes and fetch failures. The current frame is sent on connect.",
		Tags:        []string{"events"},
	}, map[string]any{
		"cycle-completed":     events.CycleCompletedEvent{},
		"frame-committed":     events.FrameCommittedEvent{},
		"lift-status-changed": events.LiftStatusChangedEvent{},
		"fetch-failed":        events.FetchFailedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 16)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.CycleCompletedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FrameCommittedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.LiftStatusChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FetchFailedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(events.FrameCommittedEvent{
			Colors:    colorNames(s.options.Frame.Snapshot()),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/liftlights/internal/api/models"
	"github.com/smazurov/liftlights/internal/events"
	"github.com/smazurov/liftlights/internal/logging"
)

// LogQuery filters the buffered records.
type LogQuery struct {
	Module string `query:"module" example:"cycle" doc:"Only records from this logger module"`
	Level  string `query:"level" enum:"debug,info,warn,error" doc:"Only records at or above this level"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" doc:"Only the newest N matching records (0 for all)"`
}

func (q *LogQuery) filter() logging.Filter {
	return logging.Filter{Module: q.Module, MinLevel: q.Level, Limit: q.Limit}
}

// registerLogRoutes registers the log buffer and log stream endpoints.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Records held in the in-memory ring buffer, oldest first",
		Tags:        []string{"logs"},
	}, func(_ context.Context, input *LogQuery) (*models.LogResponse, error) {
		entries := logging.Recent(input.filter())
		data := models.LogData{Entries: make([]models.LogEntryData, 0, len(entries)), Count: len(entries)}
		for _, e := range entries {
			data.Entries = append(data.Entries, models.LogEntryData(logEvent(e)))
		}
		return &models.LogResponse{Body: data}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends buffered logs first, then streams new logs.",
		Tags:        []string{"logs"},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		for _, entry := range logging.Recent(logging.Filter{}) {
			if err := send.Data(logEvent(entry)); err != nil {
				return
			}
		}

		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

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

func logEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

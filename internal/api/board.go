package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/liftlights/internal/api/models"
	"github.com/smazurov/liftlights/internal/display"
)

// registerBoardRoutes registers the catalog, frame and cycle endpoints.
func (s *Server) registerBoardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-lifts",
		Method:      http.MethodGet,
		Path:        "/api/lifts",
		Summary:     "List Lifts",
		Description: "Catalog in LED order with the last reported status and the colour held for each lift",
		Tags:        []string{"board"},
	}, func(_ context.Context, _ *struct{}) (*models.LiftListResponse, error) {
		return &models.LiftListResponse{Body: s.liftList()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-frame",
		Method:      http.MethodGet,
		Path:        "/api/frame",
		Summary:     "Get Frame",
		Description: "Colours currently held for every LED",
		Tags:        []string{"board"},
	}, func(_ context.Context, _ *struct{}) (*models.FrameResponse, error) {
		frame := s.options.Frame.Snapshot()
		heartbeat := display.Black
		if len(frame) > display.HeartbeatIndex {
			heartbeat = frame[display.HeartbeatIndex]
		}
		return &models.FrameResponse{
			Body: models.FrameData{
				Colors:    colorNames(frame),
				Heartbeat: heartbeat.String(),
				LEDCount:  len(frame),
				Commits:   s.options.Frame.Commits(),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-cycle",
		Method:      http.MethodGet,
		Path:        "/api/cycle",
		Summary:     "Get Cycle Status",
		Description: "Controller state and the result of the most recent cycle",
		Tags:        []string{"cycle"},
	}, func(_ context.Context, _ *struct{}) (*models.CycleResponse, error) {
		ctrl := s.options.Controller
		last, cycles := ctrl.Last()
		data := models.CycleData{
			State:    string(ctrl.State()),
			Interval: ctrl.Interval(),
			Cycles:   cycles,
		}
		if cycles > 0 {
			data.Last = &last
		}
		return &models.CycleResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "run-cycle",
		Method:      http.MethodPost,
		Path:        "/api/cycle",
		Summary:     "Run Cycle",
		Description: "Run a cycle now instead of waiting for the next tick. The cycle runs on the controller loop and the result is returned when it finishes.",
		Tags:        []string{"cycle"},
		Errors:      []int{503},
	}, func(ctx context.Context, _ *struct{}) (*models.CycleTriggerResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, triggerTimeout)
		defer cancel()

		result, err := s.options.Controller.Trigger(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, huma.Error503ServiceUnavailable("Cycle controller is not accepting requests", err)
			}
			return nil, huma.Error503ServiceUnavailable("Cycle request abandoned", err)
		}
		return &models.CycleTriggerResponse{Body: result}, nil
	})
}

func (s *Server) liftList() models.LiftListData {
	registry := s.options.Frame.Registry()
	frame := s.options.Frame.Snapshot()
	reports := s.options.Frame.LastReports()

	names := registry.Names()
	data := models.LiftListData{
		Lifts:      make([]models.LiftData, 0, len(names)),
		Duplicates: registry.Duplicates(),
	}
	for i, name := range names {
		idx, _ := registry.Lookup(name)
		if idx != i+1 {
			continue // unreachable repeat of an earlier entry
		}
		lift := models.LiftData{
			Name:  name,
			Index: idx,
			Color: display.Black.String(),
		}
		if idx < len(frame) {
			lift.Displayed = true
			lift.Color = frame[idx].String()
		}
		if r, ok := reports[name]; ok {
			lift.Status = r.String()
		}
		data.Lifts = append(data.Lifts, lift)
	}
	data.Count = len(data.Lifts)
	return data
}

func colorNames(frame []display.Color) []string {
	out := make([]string, len(frame))
	for i, c := range frame {
		out[i] = c.String()
	}
	return out
}

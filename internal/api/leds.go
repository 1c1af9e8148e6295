package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"
)

// BoardLEDSetting is a manual override for one on-board LED.
type BoardLEDSetting struct {
	Type    string `json:"type" example:"act" doc:"Board LED name, one of the capabilities' types"`
	Enabled bool   `json:"enabled" example:"true" doc:"Turn the LED on or off"`
	Pattern string `json:"pattern,omitempty" example:"blink" doc:"Pattern while on (solid, blink, heartbeat); empty means solid"`
}

// BoardLEDRequest wraps BoardLEDSetting as a request body.
type BoardLEDRequest struct {
	Body BoardLEDSetting
}

// BoardLEDCapabilities lists the board's LEDs and which one reports cycle health.
type BoardLEDCapabilities struct {
	AvailableTypes    []string `json:"available_types" doc:"LED names on this board"`
	AvailablePatterns []string `json:"available_patterns" doc:"Patterns the board supports"`
	StatusLED         string   `json:"status_led,omitempty" doc:"LED driven by cycle results; manual settings on it last until the next cycle"`
}

// BoardLEDCapabilitiesResponse wraps BoardLEDCapabilities.
type BoardLEDCapabilitiesResponse struct {
	Body BoardLEDCapabilities
}

func (s *Server) registerLEDRoutes() {
	leds := s.options.LEDController
	if leds == nil {
		s.logger.Debug("No board LED controller, LED routes disabled")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "Board LED Capabilities",
		Description: "LED names and patterns available on this board, and the LED that mirrors cycle health",
		Tags:        []string{"leds"},
	}, func(_ context.Context, _ *struct{}) (*BoardLEDCapabilitiesResponse, error) {
		return &BoardLEDCapabilitiesResponse{Body: BoardLEDCapabilities{
			AvailableTypes:    leds.Available(),
			AvailablePatterns: leds.Patterns(),
			StatusLED:         s.options.StatusLED,
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Set Board LED",
		Description: "Switch an on-board LED. This does not touch the lift strip.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 422},
	}, func(_ context.Context, input *BoardLEDRequest) (*struct{}, error) {
		req := input.Body
		if available := leds.Available(); len(available) > 0 && !slices.Contains(available, req.Type) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("unknown LED %q", req.Type))
		}
		if patterns := leds.Patterns(); req.Pattern != "" && len(patterns) > 0 && !slices.Contains(patterns, req.Pattern) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("unsupported pattern %q", req.Pattern))
		}
		if err := leds.Set(req.Type, req.Enabled, req.Pattern); err != nil {
			return nil, huma.Error400BadRequest("Failed to set LED", err)
		}
		return &struct{}{}, nil
	})
}

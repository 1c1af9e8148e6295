// Package api serves the controller's state over HTTP with huma.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/liftlights/internal/api/models"
	"github.com/smazurov/liftlights/internal/cycle"
	"github.com/smazurov/liftlights/internal/display"
	"github.com/smazurov/liftlights/internal/events"
	"github.com/smazurov/liftlights/internal/led"
	"github.com/smazurov/liftlights/internal/lifts"
	"github.com/smazurov/liftlights/internal/logging"
	"github.com/smazurov/liftlights/internal/version"
)

// triggerTimeout bounds how long POST /api/cycle waits for the run loop.
const triggerTimeout = 30 * time.Second

// CycleRunner is the controller surface the API needs.
type CycleRunner interface {
	Trigger(ctx context.Context) (cycle.Result, error)
	Last() (cycle.Result, uint64)
	State() cycle.State
	Interval() time.Duration
}

// FrameSource exposes the committed frame and the catalog behind it.
type FrameSource interface {
	Snapshot() []display.Color
	LastReports() map[string]lifts.Report
	Registry() *lifts.Registry
	Commits() uint64
}

// Options wires the server to the rest of the process. Controller, Frame and
// EventBus are required; the rest are optional.
type Options struct {
	Controller     CycleRunner
	Frame          FrameSource
	EventBus       *events.Bus
	LEDController  led.Controller
	StatusLED      string
	Updater        UpdateService
	MetricsHandler http.Handler
}

// Server is the huma API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates the API and registers every route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("LiftLights API", version.Version)
	config.Info.Description = "Ski lift status board: catalog, LED frame, cycle control and event stream"
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		options:  opts,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	server.registerRoutes()

	return server
}

// Handler returns the root handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop closes the listener and open connections, SSE streams included.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerBoardRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
	s.registerLEDRoutes()
	s.registerUpdateRoutes()
}

// Package web provides the real-time drowsiness dashboard API
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-neurodrive/internal/log"
	"github.com/teslashibe/go-neurodrive/pkg/drowsiness"
	"github.com/teslashibe/go-neurodrive/pkg/hub"
	"github.com/teslashibe/go-neurodrive/pkg/monitor"
)

// Controller is the part of the monitor the dashboard drives
type Controller interface {
	Status() monitor.Status
	Attention() drowsiness.Attention
	TuningParams() drowsiness.TuningParams
	SetTuningParams(p drowsiness.TuningParams) error
	RegisterStimulus(ts *float64) float64
	RegisterResponse(ts *float64) (float64, bool)
	Reset() string
}

// Event is the websocket envelope: "status" on connect, then "frame"
// for every processed frame.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	ctrl   Controller
	logger *slog.Logger

	// Per-frame results for websocket clients
	events *hub.Hub
}

// NewServer creates a new web dashboard server
func NewServer(port string, ctrl Controller) *Server {
	s := &Server{
		port:   port,
		ctrl:   ctrl,
		logger: log.With("component", "web"),
		events: hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "NeuroDrive Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/attention", s.handleAttention)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Post("/stimulus", s.handleStimulus)
	api.Post("/response", s.handleResponse)
	api.Post("/reset", s.handleReset)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the event hub and serves until Shutdown.
// The hub stops when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("web dashboard listening", "url", "http://localhost:"+s.port)
	go s.events.Run(ctx)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// Publish implements monitor.Publisher. Frames are only encoded when
// someone is watching.
func (s *Server) Publish(u monitor.Update) {
	if s.events.ClientCount() == 0 {
		return
	}
	if err := s.events.BroadcastJSON(Event{Type: "frame", Data: u}); err != nil {
		s.logger.Warn("encode update", "error", err)
	}
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

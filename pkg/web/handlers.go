package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-neurodrive/pkg/drowsiness"
	"github.com/teslashibe/go-neurodrive/pkg/hub"
)

// TimestampRequest is the optional body of stimulus and response calls.
// Without a timestamp the last processed frame time is used.
type TimestampRequest struct {
	Timestamp *float64 `json:"timestamp"`
}

// handleStatus returns the session snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

// handleAttention returns the current attention estimate
func (s *Server) handleAttention(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Attention())
}

// handleGetTuning returns the current tunable thresholds
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.TuningParams())
}

// handleSetTuning applies new thresholds; zero fields are left unchanged
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var p drowsiness.TuningParams
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning body: " + err.Error(),
		})
	}

	if err := s.ctrl.SetTuningParams(p); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(s.ctrl.TuningParams())
}

// handleStimulus marks a stimulus as sent
func (s *Server) handleStimulus(c *fiber.Ctx) error {
	req, err := parseTimestamp(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	at := s.ctrl.RegisterStimulus(req.Timestamp)
	return c.JSON(fiber.Map{"timestamp": at})
}

// handleResponse records the driver's response to the pending stimulus
func (s *Server) handleResponse(c *fiber.Ctx) error {
	req, err := parseTimestamp(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	latency, ok := s.ctrl.RegisterResponse(req.Timestamp)
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "no pending stimulus",
		})
	}
	return c.JSON(fiber.Map{"latency": latency})
}

// handleReset clears detector state and starts a new session
func (s *Server) handleReset(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"session": s.ctrl.Reset()})
}

// parseTimestamp accepts an empty body.
func parseTimestamp(c *fiber.Ctx) (TimestampRequest, error) {
	var req TimestampRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	err := json.Unmarshal(c.Body(), &req)
	return req, err
}

// handleEventsWS streams every processed frame. The current status is
// sent first so the dashboard can render before the next frame.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	var greeting []hub.Message
	if data, err := json.Marshal(Event{Type: "status", Data: s.ctrl.Status()}); err == nil {
		greeting = append(greeting, hub.NewJSONMessage(data))
	}

	hub.NewClient(s.events, c, greeting...).Run()
}

package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`

	// Model defaults to the server's default model.
	Model string `json:"model,omitempty"`

	// History holds the turns preceding Message, oldest first.
	History []llm.Turn `json:"history,omitempty"`
}

// ChatResponse is the body returned by POST /api/chat. Invocation failures
// are reported in Response and Kind with a 200 status.
type ChatResponse struct {
	Response   string         `json:"response"`
	Kind       llm.ResultKind `json:"kind"`
	StatusCode int            `json:"status_code,omitempty"`
}

// ModelsResponse is the body returned by GET /api/models.
type ModelsResponse struct {
	Default string          `json:"default"`
	Models  []catalog.Model `json:"models"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListModels returns the selectable models.
func (s *Server) handleListModels(c *fiber.Ctx) error {
	return c.JSON(ModelsResponse{
		Default: s.config.DefaultModel,
		Models:  s.catalog.Models(),
	})
}

// handleChat answers a single message with caller-provided history.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "message is required"})
	}

	if req.Model == "" {
		req.Model = s.config.DefaultModel
	}

	result := s.chat(c.UserContext(), eventstream.Exchange{
		Source: eventstream.SourceAPI,
		Model:  req.Model,
	}, req.Message, req.History)

	return c.JSON(ChatResponse{
		Response:   result.String(),
		Kind:       result.Kind,
		StatusCode: result.StatusCode,
	})
}

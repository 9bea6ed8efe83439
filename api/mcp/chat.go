package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm"
)

var (
	chatToolName    = "chat"
	chatDescription = "Send a message to a locally hosted model and return its reply. Pass earlier turns in history to continue a conversation."
)

// ChatInput represents the input arguments for the chat tool.
type ChatInput struct {
	Message string        `json:"message" jsonschema:"the user message to send"`
	Model   string        `json:"model,omitempty" jsonschema:"the model to use (default: the server's default model)"`
	History []HistoryTurn `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

// HistoryTurn is a single earlier turn passed to the chat tool.
type HistoryTurn struct {
	Role    string `json:"role" jsonschema:"user or assistant"`
	Content string `json:"content" jsonschema:"the text of the turn"`
}

// ChatOutput represents the output of the chat tool.
type ChatOutput struct {
	Response string         `json:"response"`
	Kind     llm.ResultKind `json:"kind"`
	Model    string         `json:"model"`
}

// handleChat processes a chat tool call.
func (s *Server) handleChat(ctx context.Context, _ *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, ChatOutput, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Message) == "" {
		return errorResult("message is required"), ChatOutput{}, nil
	}

	model := input.Model
	if model == "" {
		model = s.config.DefaultModel
	}

	history := make([]llm.Turn, 0, len(input.History))
	for _, t := range input.History {
		history = append(history, llm.Turn{Role: llm.Role(t.Role), Content: t.Content})
	}

	logger.Debug("MCP chat request", "model", model, "history_turns", len(history))

	start := time.Now()
	result := s.config.Invoker.Chat(ctx, input.Message, model, history)

	if s.config.OnExchange != nil {
		s.config.OnExchange(eventstream.Exchange{
			Source:       eventstream.SourceMCP,
			Model:        model,
			HistoryTurns: len(history),
			Result:       result,
			Duration:     time.Since(start),
		})
	}

	output := ChatOutput{
		Response: result.String(),
		Kind:     result.Kind,
		Model:    model,
	}

	if !result.OK() {
		logger.Warn("MCP chat failed", "model", model, "kind", result.Kind)
		res := errorResult(output.Response)
		return res, output, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: output.Response},
		},
	}, output, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

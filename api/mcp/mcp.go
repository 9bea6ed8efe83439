// Package mcp provides an MCP (Model Context Protocol) server exposing the
// chat operation as a tool.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/utils"
)

type Config struct {
	// Invoker answers chat tool calls.
	Invoker llm.Invoker

	// DefaultModel is used when a call does not name a model.
	DefaultModel string

	// OnExchange is called after every tool invocation. Optional.
	OnExchange func(eventstream.Exchange)

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the chat tool.
func NewServer(c Config) (*Server, error) {
	if c.Invoker == nil {
		return nil, errors.New("invoker is required")
	}
	if c.DefaultModel == "" {
		return nil, errors.New("default model is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "parley",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        chatToolName,
		Description: chatDescription,
	}, s.handleChat)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying MCP server, e.g. to connect it to a
// non-HTTP transport.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

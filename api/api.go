package api

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/api/mcp"
	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/session"
	"github.com/papercomputeco/parley/pkg/utils"
	"github.com/papercomputeco/parley/pkg/worker"
	chatweb "github.com/papercomputeco/parley/web/chat"
)

const pruneInterval = time.Minute

// Server serves the chat page, the JSON chat API and the MCP endpoint.
type Server struct {
	config   Config
	invoker  *llm.SwitchInvoker
	sessions *session.Store
	catalog  *catalog.Catalog
	page     *template.Template
	logger   *slog.Logger
	app      *fiber.App

	// ctx ends background work on Shutdown
	ctx  context.Context
	stop context.CancelFunc
}

// NewServer creates a new API server answering with the given invoker.
func NewServer(config Config, invoker llm.Invoker) (*Server, error) {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Catalog == nil {
		config.Catalog = catalog.Default()
	}
	if config.DefaultModel == "" {
		config.DefaultModel = config.Catalog.DefaultModel()
	}
	if !config.Catalog.Has(config.DefaultModel) {
		return nil, fmt.Errorf("default model: %w: %q", catalog.ErrUnknownModel, config.DefaultModel)
	}

	page, err := chatweb.Templates()
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}

	ctx, stop := context.WithCancel(context.Background())

	s := &Server{
		ctx:     ctx,
		stop:    stop,
		config:  config,
		invoker: llm.NewSwitchInvoker(invoker),
		sessions: session.NewStore(session.Options{
			Greeting: config.Greeting,
			Model:    config.DefaultModel,
			DarkMode: config.DarkMode,
		}),
		catalog: config.Catalog,
		page:    page,
		logger:  config.Logger,
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Invoker:      s.invoker,
		DefaultModel: config.DefaultModel,
		OnExchange:   s.record,
		Logger:       config.Logger,
	})
	if err != nil {
		stop()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/", s.handleIndex)
	app.Post("/send", s.handleSend)
	app.Post("/reply", s.handleReply)
	app.Post("/clear", s.handleClear)
	app.Post("/theme", s.handleTheme)
	app.Post("/model", s.handleModel)
	app.Get("/download", s.handleDownload)

	app.Get("/ping", s.handlePing)
	app.Get("/api/models", s.handleListModels)
	app.Post("/api/chat", s.handleChat)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	s.app = app
	return s, nil
}

// SetInvoker swaps the model backend. Requests already waiting on the
// previous backend complete against it.
func (s *Server) SetInvoker(invoker llm.Invoker) {
	s.invoker.Set(invoker)
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	if s.config.SessionIdle > 0 {
		go s.pruneSessions(s.ctx)
	}

	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	s.stop()
	return s.app.Shutdown()
}

func (s *Server) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Prune(s.config.SessionIdle); n > 0 {
				s.logger.Debug("pruned idle sessions", "count", n, "remaining", s.sessions.Len())
			}
		}
	}
}

// chat runs one invocation and records it.
func (s *Server) chat(ctx context.Context, x eventstream.Exchange, message string, history []llm.Turn) llm.Result {
	s.logger.Debug("invoking model",
		"source", x.Source,
		"model", x.Model,
		"message", utils.Truncate(message, 80),
	)

	start := time.Now()
	result := s.invoker.Chat(ctx, message, x.Model, history)

	x.Result = result
	x.Duration = time.Since(start)
	x.HistoryTurns = len(history)
	s.record(x)

	level := slog.LevelInfo
	if !result.OK() {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "exchange completed",
		"source", x.Source,
		"session_id", x.SessionID,
		"model", x.Model,
		"kind", result.Kind,
		"duration", x.Duration,
	)

	return result
}

// record enqueues an exchange event when a pool is configured.
func (s *Server) record(x eventstream.Exchange) {
	if s.config.Pool == nil {
		return
	}
	s.config.Pool.Enqueue(worker.Job{Event: eventstream.NewExchangeEvent(x)})
}

// Package servecmder provides the serve command that runs the web chat,
// the JSON chat API and the MCP endpoint.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/api"
	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/dotdir"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/eventstream/kafka"
	"github.com/papercomputeco/parley/pkg/eventstream/nop"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/worker"
)

const (
	logFileName = "parley.log"
	sessionIdle = 2 * time.Hour
)

type serveCommander struct {
	listen         string
	endpoint       string
	timeout        uint
	stream         bool
	model          string
	eventsProvider string
	kafkaBrokers   []string
	kafkaTopic     string

	configDir string
	debug     bool

	cfg    *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Serve the web chat.

Open the listen address in a browser to chat with a local model. The same
server answers POST /api/chat with JSON and exposes a "chat" MCP tool at /mcp.

Edits to config.toml under [ollama] are applied without a restart.

Examples:
  parley serve
  parley serve --listen :9000 --model llama3
  parley serve --events-provider kafka --kafka-brokers localhost:9092`

const serveShortDesc string = "Serve the web chat"

var flags = []string{
	config.FlagListen,
	config.FlagEndpoint,
	config.FlagTimeout,
	config.FlagStream,
	config.FlagModel,
	config.FlagEventsProvider,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := config.Resolve(cmd, flags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStream, &cmder.stream)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.kafkaTopic)

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	logPath, err := dotdir.NewManager().File(c.configDir, logFileName)
	if err != nil {
		return fmt.Errorf("resolving log file: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	c.logger = logger.Multi(
		logger.New(logger.WithDebug(c.debug), logger.WithTerminal(cmd.OutOrStdout())),
		logger.New(logger.WithDebug(c.debug), logger.WithLogFile(logFile), logger.WithCommand("serve")),
	)

	publisher, err := newPublisher(c.cfg.Events, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	// Runs before publisher.Close so queued events drain first.
	defer pool.Close()

	invoker, err := newInvoker(c.cfg.Ollama, c.logger)
	if err != nil {
		return err
	}

	models := catalog.Default()
	if len(c.cfg.Chat.Models) > 0 {
		models = catalog.FromNames(c.cfg.Chat.Models)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:   c.cfg.Server.Listen,
		Catalog:      models,
		DefaultModel: c.cfg.Chat.DefaultModel,
		DarkMode:     c.cfg.Chat.DarkMode,
		Greeting:     c.cfg.Chat.Greeting,
		SessionIdle:  sessionIdle,
		Pool:         pool,
		Logger:       c.logger,
	}, invoker)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("serving web chat",
		"listen", c.cfg.Server.Listen,
		"endpoint", c.cfg.Ollama.Endpoint,
		"model", c.cfg.Chat.DefaultModel,
		"events", c.cfg.Events.Provider,
		"log_file", logPath,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	go func() {
		if err := c.watchConfig(ctx, cmd, server); err != nil {
			c.logger.Warn("config hot reload disabled", "error", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	}

	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// watchConfig swaps in a new Ollama client whenever config.toml changes.
// Flags given on the command line keep precedence over the file.
func (c *serveCommander) watchConfig(ctx context.Context, cmd *cobra.Command, server *api.Server) error {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		return err
	}

	return cfger.Watch(ctx, c.logger, func(*config.Config) {
		cfg, err := config.Resolve(cmd, flags...)
		if err != nil {
			c.logger.Warn("resolving reloaded config", "error", err)
			return
		}

		invoker, err := newInvoker(cfg.Ollama, c.logger)
		if err != nil {
			c.logger.Warn("building model client", "error", err)
			return
		}

		server.SetInvoker(invoker)
		c.logger.Info("model client updated",
			"endpoint", cfg.Ollama.Endpoint,
			"timeout", cfg.Ollama.Timeout(),
			"stream", cfg.Ollama.StreamEnabled,
		)
	})
}

func newInvoker(cfg config.OllamaConfig, log *slog.Logger) (llm.Invoker, error) {
	p, err := provider.New(provider.Ollama, provider.Options{
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.Timeout(),
		Stream:   cfg.StreamEnabled,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	return p, nil
}

func newPublisher(cfg config.EventsConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case eventstream.ProviderNone, "":
		return nop.NewPublisher(), nil
	case eventstream.ProviderKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events provider: %q (supported: %v)", cfg.Provider, eventstream.SupportedProviders())
	}
}

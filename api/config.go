// Package api provides the HTTP server behind the browser chat page, the
// JSON chat API and the MCP endpoint.
package api

import (
	"log/slog"
	"time"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/worker"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8501")
	ListenAddr string

	// Catalog lists the selectable models. Defaults to catalog.Default().
	Catalog *catalog.Catalog

	// DefaultModel is selected for new sessions. Defaults to the catalog default.
	DefaultModel string

	// DarkMode is the initial theme of new sessions.
	DarkMode bool

	// Greeting opens every new session. Empty disables it.
	Greeting string

	// SessionIdle drops sessions not seen for this long. Zero keeps them for
	// the lifetime of the process.
	SessionIdle time.Duration

	// Pool receives an event for every completed exchange. Optional.
	Pool *worker.Pool

	// Logger is optional, defaults to a no-op logger
	Logger *slog.Logger
}

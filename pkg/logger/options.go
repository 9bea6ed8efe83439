package logger

import (
	"io"
	"log/slog"
)

// Option configures a Logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug. The --debug flag of every parley
// command maps onto it.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the charmbracelet/log handler.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithJSON selects slog's JSON handler.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithTerminal writes colorized output to w. ask and chat point it at
// stderr so replies on stdout stay clean; serve points it at stdout.
func WithTerminal(w io.Writer) Option {
	return func(c *config) {
		c.pretty = true
		c.json = false
		c.writers = []io.Writer{w}
	}
}

// WithLogFile writes JSON records to w, normally parley.log in the dot dir.
func WithLogFile(w io.Writer) Option {
	return func(c *config) {
		c.json = true
		c.pretty = false
		c.writers = []io.Writer{w}
	}
}

// WithCommand tags every record with the parley subcommand that produced it.
func WithCommand(name string) Option {
	return func(c *config) {
		c.command = name
	}
}

// WithWriter overrides the output writer. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters sets several writers, combined via io.MultiWriter.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithSource includes file:line in log output.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}

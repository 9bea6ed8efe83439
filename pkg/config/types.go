package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent parley configuration stored as config.toml
// in the .parley/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Server  ServerConfig `toml:"server"`
	Ollama  OllamaConfig `toml:"ollama"`
	Chat    ChatConfig   `toml:"chat"`
	Events  EventsConfig `toml:"events"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// OllamaConfig holds settings for the generation endpoint.
type OllamaConfig struct {
	// Endpoint is the full generate URL, scheme + host + port + path.
	Endpoint       string `toml:"endpoint,omitempty"`
	TimeoutSeconds uint   `toml:"timeout_seconds,omitempty"`
	StreamEnabled  bool   `toml:"stream_enabled"`
}

// ChatConfig holds chat session defaults.
type ChatConfig struct {
	DefaultModel string `toml:"default_model,omitempty"`
	DarkMode     bool   `toml:"dark_mode"`
	Greeting     string `toml:"greeting,omitempty"`

	// Models restricts the selectable models. Empty means the built-in catalog.
	Models []string `toml:"models,omitempty"`
}

// EventsConfig holds exchange event publishing settings.
type EventsConfig struct {
	Provider     string   `toml:"provider,omitempty"`
	KafkaBrokers []string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `toml:"kafka_topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"ollama.endpoint": {
		get: func(c *Config) string { return c.Ollama.Endpoint },
		set: func(c *Config, v string) error { c.Ollama.Endpoint = v; return nil },
	},
	"ollama.timeout_seconds": {
		get: func(c *Config) string {
			if c.Ollama.TimeoutSeconds == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Ollama.TimeoutSeconds), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for ollama.timeout_seconds: %w", err)
			}
			c.Ollama.TimeoutSeconds = uint(n)
			return nil
		},
	},
	"ollama.stream_enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Ollama.StreamEnabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for ollama.stream_enabled: %w", err)
			}
			c.Ollama.StreamEnabled = b
			return nil
		},
	},
	"chat.default_model": {
		get: func(c *Config) string { return c.Chat.DefaultModel },
		set: func(c *Config, v string) error { c.Chat.DefaultModel = v; return nil },
	},
	"chat.dark_mode": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.DarkMode) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.dark_mode: %w", err)
			}
			c.Chat.DarkMode = b
			return nil
		},
	},
	"chat.greeting": {
		get: func(c *Config) string { return c.Chat.Greeting },
		set: func(c *Config, v string) error { c.Chat.Greeting = v; return nil },
	},
	"chat.models": {
		get: func(c *Config) string { return strings.Join(c.Chat.Models, ",") },
		set: func(c *Config, v string) error { c.Chat.Models = splitList(v); return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.kafka_brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.KafkaBrokers, ",") },
		set: func(c *Config, v string) error { c.Events.KafkaBrokers = splitList(v); return nil },
	},
	"events.kafka_topic": {
		get: func(c *Config) string { return c.Events.KafkaTopic },
		set: func(c *Config, v string) error { c.Events.KafkaTopic = v; return nil },
	},
}

// splitList parses a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

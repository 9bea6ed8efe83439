package config

import (
	"time"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm/provider/ollama"
	"github.com/papercomputeco/parley/pkg/session"
)

const (
	defaultListen = ":8501"

	defaultEventsProvider = eventstream.ProviderNone
	defaultKafkaTopic     = "parley.exchanges"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Ollama: OllamaConfig{
			Endpoint:       ollama.DefaultEndpoint,
			TimeoutSeconds: uint(ollama.DefaultTimeout / time.Second),
		},
		Chat: ChatConfig{
			DefaultModel: catalog.Default().DefaultModel(),
			DarkMode:     true,
			Greeting:     session.DefaultGreeting,
		},
		Events: EventsConfig{
			Provider:   defaultEventsProvider,
			KafkaTopic: defaultKafkaTopic,
		},
	}
}

// Timeout returns the configured generation timeout.
func (c OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

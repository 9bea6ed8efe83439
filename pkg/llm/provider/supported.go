package provider

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/parley/pkg/llm/provider/ollama"
)

// Supported provider type constants
const (
	Ollama = "ollama"
)

// Options configures a provider built with New.
type Options struct {
	Endpoint string
	Timeout  time.Duration
	Stream   bool
	Logger   *slog.Logger
}

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Ollama}
}

// New creates a new Provider instance for the given provider type.
// Returns an error if the provider type is not recognized.
func New(providerType string, o Options) (Provider, error) {
	switch providerType {
	case Ollama, "":
		return ollama.NewClient(ollama.Config{
			Endpoint: o.Endpoint,
			Timeout:  o.Timeout,
			Stream:   o.Stream,
			Logger:   o.Logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}

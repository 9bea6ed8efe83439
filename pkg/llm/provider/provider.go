// Package provider defines the generation backends a chat can be sent to.
package provider

import (
	"context"

	"github.com/papercomputeco/parley/pkg/llm"
)

// Provider sends a conversation to a model backend.
type Provider interface {
	// Name returns the canonical provider name (e.g., "ollama")
	Name() string

	// Chat sends the message on top of the history and returns the tagged outcome.
	// It never returns an error: failures are carried by the llm.Result.
	Chat(ctx context.Context, message, model string, history []llm.Turn) llm.Result

	// Invoke is Chat rendered as the user-facing string.
	Invoke(ctx context.Context, message, model string, history []llm.Turn) string
}

// Package eventstream describes the events emitted after each completed chat
// exchange and the publishers that ship them.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeCompleted is emitted after the model answered a prompt.
	EventTypeExchangeCompleted = "parley.exchange.completed"
)

// Sources identify which surface produced the exchange.
const (
	SourceWeb = "web"
	SourceAPI = "api"
	SourceMCP = "mcp"
)

// ExchangeEvent is a transport-neutral payload for one prompt and reply.
type ExchangeEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	SessionID string `json:"session_id,omitempty"`
	Source    string `json:"source"`
	Model     string `json:"model"`

	HistoryTurns int            `json:"history_turns"`
	Kind         llm.ResultKind `json:"kind"`
	StatusCode   int            `json:"status_code,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	Reply        string         `json:"reply"`
}

// Exchange describes a finished invocation.
type Exchange struct {
	SessionID    string
	Source       string
	Model        string
	HistoryTurns int
	Result       llm.Result
	Duration     time.Duration
}

// NewExchangeEvent stamps an exchange with a fresh ID and emission time.
func NewExchangeEvent(x Exchange) *ExchangeEvent {
	return &ExchangeEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeExchangeCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     x.SessionID,
		Source:        x.Source,
		Model:         x.Model,
		HistoryTurns:  x.HistoryTurns,
		Kind:          x.Result.Kind,
		StatusCode:    x.Result.StatusCode,
		DurationMs:    x.Duration.Milliseconds(),
		Reply:         x.Result.String(),
	}
}

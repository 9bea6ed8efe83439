// Package llm provides the internal representation of a conversation with a
// local model and of a single generation request and its outcome.
package llm

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents a single message exchanged in the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Timestamp is assigned when the turn is created and is only used for display
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current local time.
func NewTurn(role Role, content string) Turn {
	return NewTurnAt(role, content, time.Now())
}

// NewTurnAt creates a turn stamped with the provided time.
func NewTurnAt(role Role, content string, at time.Time) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
}

// Clock returns the turn timestamp formatted for display, e.g. "14:03:59".
func (t Turn) Clock() string {
	return t.Timestamp.Format(time.TimeOnly)
}

// IsUser reports whether the turn was authored by the user.
func (t Turn) IsUser() bool {
	return t.Role == RoleUser
}

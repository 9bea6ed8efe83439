// Package ollama implements the generation client for a local Ollama server.
package ollama

import "time"

// generateResponse is the body returned by /api/generate. With streaming
// enabled the same shape arrives once per line.
type generateResponse struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`

	// Response is a pointer so an absent (or null) field can be told apart
	// from an empty completion.
	Response *string `json:"response"`

	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`
}

// tagsResponse is the body returned by /api/tags.
type tagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Model      string    `json:"model"`
		ModifiedAt time.Time `json:"modified_at"`
		Size       int64     `json:"size"`
	} `json:"models"`
}

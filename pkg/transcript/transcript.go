// Package transcript renders a conversation as a plain-text download.
package transcript

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/parley/pkg/llm"
)

const (
	// Filename is the suggested name for the downloaded transcript.
	Filename = "chat_history.txt"

	// ContentType of the rendered transcript.
	ContentType = "text/plain; charset=utf-8"
)

// Format renders one "<ROLE> (<HH:MM:SS>): <content>" line per turn.
func Format(turns []llm.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", strings.ToUpper(string(t.Role)), t.Clock(), t.Content))
	}
	return strings.Join(lines, "\n")
}

// Disposition is the Content-Disposition header value for the download.
func Disposition() string {
	return fmt.Sprintf("attachment; filename=%q", Filename)
}

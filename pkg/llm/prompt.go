package llm

import "strings"

const (
	userLabel      = "User"
	assistantLabel = "Assistant"
)

// Label maps a role to the speaker label used in flattened prompts.
// Any role other than user is rendered as the assistant.
func Label(role Role) string {
	if role == RoleUser {
		return userLabel
	}
	return assistantLabel
}

// BuildPrompt flattens the history and the new user message into a single
// prompt the model can continue:
//
//	User: <content>
//	Assistant: <content>
//	User: <message>
//	Assistant:
//
// The history block is always followed by a newline, so an empty history
// yields a prompt that starts with an empty line.
func BuildPrompt(history []Turn, message string) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, Label(turn.Role)+": "+turn.Content)
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(userLabel + ": " + message)
	b.WriteString("\n")
	b.WriteString(assistantLabel + ":")

	return b.String()
}

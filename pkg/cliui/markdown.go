package cliui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

const defaultWrap = 80

// MarkdownStyle picks the glamour style for the current terminal background.
func MarkdownStyle() string {
	if termenv.HasDarkBackground() {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

// RenderMarkdown renders markdown content for terminal display using glamour.
// On failure the content is returned unchanged alongside the error.
func RenderMarkdown(content string) (string, error) {
	return RenderMarkdownStyle(content, MarkdownStyle(), defaultWrap)
}

// RenderMarkdownStyle renders with an explicit glamour style and wrap width.
func RenderMarkdownStyle(content, style string, wrap int) (string, error) {
	if wrap <= 0 {
		wrap = defaultWrap
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}

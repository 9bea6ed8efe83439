// Package theme holds the colour palettes of the chat page.
package theme

// Palette is the set of colours used to render the chat page.
type Palette struct {
	Name       string
	Background string
	Text       string
	UserBubble string
	BotBubble  string
	Accent     string
}

var (
	// Dark is the default palette.
	Dark = Palette{
		Name:       "dark",
		Background: "#121212",
		Text:       "#FAFAFA",
		UserBubble: "#2E8B57",
		BotBubble:  "#333333",
		Accent:     "#00C851",
	}

	Light = Palette{
		Name:       "light",
		Background: "#f7f7f7",
		Text:       "#111111",
		UserBubble: "#D1FFC6",
		BotBubble:  "#F0F0F0",
		Accent:     "#388E3C",
	}
)

// For returns the palette for the given mode.
func For(dark bool) Palette {
	if dark {
		return Dark
	}
	return Light
}

// Package chat embeds the templates of the browser chat page.
package chat

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var FS embed.FS

// PageTemplate is the name of the chat page template.
const PageTemplate = "index.html.tmpl"

// Templates parses the embedded templates.
func Templates() (*template.Template, error) {
	return template.New(PageTemplate).ParseFS(FS, "templates/*.tmpl")
}

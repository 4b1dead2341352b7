// Package web embeds the server-rendered page templates and static assets
// into the binary so deployments are a single artifact.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// StaticFS returns the embedded static assets rooted at "static".
func StaticFS() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}

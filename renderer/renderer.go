// Package renderer turns capgains results into Markdown reports, and Markdown
// into HTML or terminal output.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var embedded embed.FS

var templates, _ = fs.Sub(embedded, "templates")

// GainsRenderOptions holds configuration for rendering a gains report.
type GainsRenderOptions struct {
	SkipPortions bool // Do not render the matched lots section.
	SkipAssets   bool // Do not render the per asset section.
}

// RenderGains renders the Gains struct to a markdown string.
func RenderGains(g *Gains, opts GainsRenderOptions) string {
	partials := map[string]string{
		"gains_title":    "gains_title.md",
		"gains_periods":  "gains_periods.md",
		"gains_assets":   "gains_assets.md",
		"gains_portions": "gains_portions.md",
	}
	// An empty file name results in an empty template.
	if opts.SkipAssets {
		partials["gains_assets"] = ""
	}
	if opts.SkipPortions {
		partials["gains_portions"] = ""
	}
	return renderTemplate("gains", "gains.md", partials, g)
}

// RenderLots renders the Lots struct to a markdown string.
func RenderLots(l *Lots) string {
	return renderTemplate("lots", "lots.md", nil, l)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

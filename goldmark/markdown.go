// Package goldmark renders markdown text to ANSI-styled terminal output
// using goldmark for parsing and lipgloss for styling. It is used for
// assistant replies and for the analysis report that closes a guidance
// session.
package goldmark

import "github.com/iklavya/coach"

// DefaultWidth is used when the caller passes a non-positive width.
const DefaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs, list items and quotes are word-wrapped to width. Code
// blocks keep their lines. GFM tables and strikethrough are supported.
func Render(source string, width int, theme coach.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}

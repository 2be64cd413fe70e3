package report

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Render converts a Markdown report to styled terminal output.
// Falls back to the raw input if glamour is unavailable or rendering fails.
func Render(md string) string {
	return RenderWidth(md, 0)
}

// RenderWidth renders Markdown constrained to a specific column width.
// Width 0 disables word-wrap.
func RenderWidth(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	// Glamour adds trailing newlines; trim for inline use
	return strings.TrimRight(out, "\n")
}

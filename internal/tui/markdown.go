package tui

import (
	"github.com/charmbracelet/glamour"
)

const markdownWrapWidth = 100

// RenderMarkdown renders markdown for terminal display. Callers should fall
// back to the raw text when an error is returned or when not on a TTY.
func RenderMarkdown(markdown string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWrapWidth),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(markdown)
}

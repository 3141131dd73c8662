package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the wrap width when the terminal size is unknown.
const DefaultWidth = 80

// RenderMarkdown renders markdown for the terminal. A plain theme gets the
// notty style, which keeps the text readable when piped.
func (t Theme) RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	style := "notty"
	if t.Styled {
		style = "dark"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

// EscapeMarkdown escapes characters that would break a table cell.
func EscapeMarkdown(s string) string {
	r := strings.NewReplacer("|", `\|`, "\n", " ", "*", `\*`, "_", `\_`)
	return r.Replace(s)
}

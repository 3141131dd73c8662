// Package ui holds terminal styling for the nlens commands.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
const (
	ColorPrimary   = "#7C3AED" // user prefix, headings
	ColorSecondary = "#10B981" // replies, good grades
	ColorAccent    = "#60A5FA" // mode badge
	ColorWarning   = "#F59E0B" // middling grades
	ColorError     = "#EF4444"
	ColorMuted     = "#6B7280"
	ColorBorder    = "#374151"
)

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimary)).Bold(true)
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondary))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted)).Italic(true)
	badgeStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(ColorAccent)).
			Padding(0, 1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 1)
)

// Theme renders text with or without styling. The zero value is plain.
type Theme struct {
	Styled bool
}

// NewTheme returns a theme that styles output only for terminals.
func NewTheme(terminal bool) Theme {
	return Theme{Styled: terminal}
}

func (t Theme) render(s lipgloss.Style, text string) string {
	if !t.Styled {
		return text
	}
	return s.Render(text)
}

// UserPrefix is printed before the user's input.
func (t Theme) UserPrefix() string {
	return t.render(userStyle, "You> ")
}

// SystemPrefix is printed before a revealed reply.
func (t Theme) SystemPrefix() string {
	return t.render(systemStyle, "NutriLens> ")
}

// Error formats an error line.
func (t Theme) Error(text string) string {
	return t.render(errorStyle, text)
}

// Hint formats secondary text.
func (t Theme) Hint(text string) string {
	return t.render(hintStyle, text)
}

// Badge formats a short label such as the current mode.
func (t Theme) Badge(text string) string {
	if !t.Styled {
		return "[" + text + "]"
	}
	return badgeStyle.Render(text)
}

// Grade colors an evaluation grade: A and B green, C amber, anything else red.
func (t Theme) Grade(grade string) string {
	if !t.Styled {
		return grade
	}
	color := ColorError
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "A", "B":
		color = ColorSecondary
	case "C":
		color = ColorWarning
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(grade)
}

// Panel frames a block of text, used for the evaluation summary.
func (t Theme) Panel(text string) string {
	if !t.Styled {
		return text
	}
	return panelStyle.Render(text)
}

// Package tui is the terminal learner client. Key presses stand in for the
// pointer: pick an item up, move it over a category, drop or cancel.
package tui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted  = ac("240", "243")
	colorAccent = ac("#0b7a4b", "#5fd7a7")
	colorError  = ac("#b00020", "#ff6b6b")
	colorBorder = ac("250", "240")

	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	heldStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(22)
	// a category under the held item, the isOver highlight
	overStyle = columnStyle.BorderForeground(colorAccent)
)

// markdown renders exercise descriptions; it falls back to the raw text.
func markdown(src string, width int) string {
	if src == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return src
	}
	out, err := r.Render(src)
	if err != nil {
		return src
	}
	return out
}

package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorRed colors text red
func ColorRed(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")).
		Render(text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("3")).
		Render(text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("6")).
		Render(text)
}

// ColorGreen colors text green
func ColorGreen(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")).
		Render(text)
}

// ColorDim makes text dim/gray
func ColorDim(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(text)
}

// ColorRunState colors a run state word with its conventional color:
// succeeded green, failed red, running cyan, anything else dim.
func ColorRunState(state string) string {
	switch state {
	case "succeeded":
		return ColorGreen(state)
	case "failed":
		return ColorRed(state)
	case "running":
		return ColorCyan(state)
	default:
		return ColorDim(state)
	}
}

// plainOutput reports whether the terminal wants unstyled ASCII output.
func plainOutput() bool {
	return termenv.EnvColorProfile() == termenv.Ascii
}

// IconOK returns the success marker, degrading to ASCII on dumb terminals.
func IconOK() string {
	if plainOutput() {
		return "[ok]"
	}
	return "✅"
}

// IconWarn returns the warning marker.
func IconWarn() string {
	if plainOutput() {
		return "[warn]"
	}
	return "⚠️ "
}

// IconFail returns the failure marker.
func IconFail() string {
	if plainOutput() {
		return "[fail]"
	}
	return "❌"
}

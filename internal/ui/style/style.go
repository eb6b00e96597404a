// Package style provides the colors and icons shared by the CLI output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/elkincvco/crwsh/internal/core/domain"
)

// Palette.
var (
	Aqua   = lipgloss.Color("#0EA5E9")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
)

var (
	// Label renders field names in status output.
	Label = lipgloss.NewStyle().Foreground(Slate).Width(10)
	// Heading renders section titles.
	Heading = lipgloss.NewStyle().Foreground(Aqua).Bold(true)
)

// StateColor returns the color used for a lifecycle state.
func StateColor(s domain.State) lipgloss.Color {
	switch s {
	case domain.StateActive:
		return Green
	case domain.StateWaiting, domain.StateInstalling, domain.StateActivating:
		return Yellow
	case domain.StateRedundant:
		return Red
	default:
		return Slate
	}
}

// StateIcon returns the icon used for a lifecycle state.
func StateIcon(s domain.State) string {
	switch s {
	case domain.StateActive:
		return Dot
	case domain.StateRedundant:
		return Cross
	default:
		return Circle
	}
}

// State renders an epoch state as "<icon> <state>" in its color.
func State(s domain.State) string {
	return lipgloss.NewStyle().Foreground(StateColor(s)).Render(StateIcon(s) + " " + string(s))
}

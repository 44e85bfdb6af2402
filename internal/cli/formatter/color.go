package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StateStyle returns the style for an item's progress state.
func StateStyle(state domain.ProgressState) lipgloss.Style {
	switch state {
	case domain.StateDone:
		return StyleGreen
	case domain.StateInProgress:
		return StyleYellow
	default:
		return StyleDim
	}
}

// StateIndicator returns a colored marker such as "● DONE".
func StateIndicator(state domain.ProgressState) string {
	switch state {
	case domain.StateDone:
		return StyleGreen.Render("● DONE")
	case domain.StateInProgress:
		return StyleYellow.Render("● IN PROGRESS")
	default:
		return StyleDim.Render("● NOT STARTED")
	}
}

// PerformanceStyle colors a 0..100 score: green from 67, yellow from 34.
func PerformanceStyle(pct int) lipgloss.Style {
	switch {
	case pct >= 67:
		return StyleGreen
	case pct >= 34:
		return StyleYellow
	default:
		return StyleRed
	}
}

// Percent renders pct as a colored "NN%".
func Percent(pct int) string {
	return PerformanceStyle(pct).Render(fmt.Sprintf("%d%%", pct))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len([]rune(upper)))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}

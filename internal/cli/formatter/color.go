package formatter

import (
	"fmt"
	"strings"

	"github.com/Moiss/building/internal/domain"
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

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// LightColor returns the style of a traffic light.
func LightColor(light domain.TrafficLight) lipgloss.Style {
	switch light {
	case domain.LightRed:
		return StyleRed
	case domain.LightYellow:
		return StyleYellow
	case domain.LightGreen:
		return StyleGreen
	default:
		return StyleDim
	}
}

// LightIndicator returns a colored traffic light such as "● RED".
func LightIndicator(light domain.TrafficLight) string {
	if light == "" {
		return StyleDim.Render("● --")
	}
	return LightColor(light).Render("● " + strings.ToUpper(string(light)))
}

// SeverityColor returns the style for an alert severity.
func SeverityColor(sev domain.Severity) lipgloss.Style {
	switch sev {
	case domain.SeverityCritical:
		return StyleRed
	case domain.SeverityWarning:
		return StyleYellow
	case domain.SeverityInfo:
		return StyleBlue
	default:
		return StyleDim
	}
}

// SeverityBadge renders "▲ CRITICAL", "▲ WARNING" or "● INFO".
func SeverityBadge(sev domain.Severity) string {
	mark := "▲"
	if sev == domain.SeverityInfo {
		mark = "●"
	}
	return SeverityColor(sev).Render(fmt.Sprintf("%s %s", mark, strings.ToUpper(string(sev))))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

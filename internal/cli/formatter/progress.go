package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a physical progress bar like [████░░░░]  45%.
// pct is on the 0..100 scale. Colors follow how far along the item is:
// green from 66%, yellow from 33%, red below.
func RenderProgress(pct float64, width int) string {
	pct = clampPct(pct)
	return fmt.Sprintf("[%s] %3.0f%%", progressStyle(pct).Render(bar(pct, width)), pct)
}

// RenderCompactBar renders the bar alone, without brackets or percentage.
// dim renders it muted, used for closed stages.
func RenderCompactBar(pct float64, width int, dim bool) string {
	pct = clampPct(pct)
	if dim {
		return StyleDim.Render(bar(pct, width))
	}
	return progressStyle(pct).Render(bar(pct, width))
}

// RenderConsumption renders spending against plan as a bar colored by the
// line's traffic light semantics: past 100% the bar is full and red.
func RenderConsumption(pct float64, width int) string {
	style := StyleGreen
	switch {
	case pct > 100:
		style = StyleRed
	case pct > 80:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar(clampPct(pct), width)), pct)
}

func bar(pct float64, width int) string {
	if width < 2 {
		width = 2
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
}

func progressStyle(pct float64) lipgloss.Style {
	switch {
	case pct < 33:
		return StyleRed
	case pct < 66:
		return StyleYellow
	default:
		return StyleGreen
	}
}

func clampPct(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

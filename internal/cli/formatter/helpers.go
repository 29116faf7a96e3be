package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		return boxStyle.Render(titleRendered + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// Field renders one "LABEL  value" line of a detail box.
func Field(label, value string) string {
	return fmt.Sprintf("  %s  %s\n", Dim(fmt.Sprintf("%-9s", strings.ToUpper(label))), value)
}

// FormatMoney renders an amount with thousands separators and two decimals.
func FormatMoney(amount float64) string {
	if math.Abs(amount) < 0.005 {
		return "0.00"
	}
	return humanize.FormatFloat("#,###.##", amount)
}

// FormatMoneyStyled colors negative amounts (overruns) red.
func FormatMoneyStyled(amount float64) string {
	if amount < 0 {
		return StyleRed.Render(FormatMoney(amount))
	}
	return FormatMoney(amount)
}

// FormatPct renders a percentage with one decimal. The consumption
// sentinel for money spent against a zero plan shows as "n/a".
func FormatPct(pct float64) string {
	if pct >= 999 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDate renders a calendar date or a dim placeholder.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Dim("--")
	}
	return t.Format("2006-01-02")
}

// RelativeDateFrom returns a human-friendly relative date string from a reference time.
func RelativeDateFrom(t time.Time, now time.Time) string {
	days := int(math.Round(domain.DateOnly(t).Sub(domain.DateOnly(now)).Hours() / 24))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 0 && days < 14:
		return fmt.Sprintf("In %dd", days)
	case days > 0 && days < 60:
		return fmt.Sprintf("In %dw", days/7)
	case days > 0:
		return fmt.Sprintf("In %dmo", days/30)
	case days > -14:
		return fmt.Sprintf("%dd ago", -days)
	case days > -60:
		return fmt.Sprintf("%dw ago", -days/7)
	default:
		return fmt.Sprintf("%dmo ago", -days/30)
	}
}

// DeadlineStyled colors a stage deadline by urgency relative to now.
func DeadlineStyled(deadline *time.Time, now time.Time) string {
	if deadline == nil {
		return Dim("--")
	}
	text := RelativeDateFrom(*deadline, now)
	days := int(math.Round(domain.DateOnly(*deadline).Sub(domain.DateOnly(now)).Hours() / 24))
	switch {
	case days <= 2:
		return StyleRed.Render(text)
	case days <= 7:
		return StyleYellow.Render(text)
	default:
		return StyleFg.Render(text)
	}
}

// WorkStatePill returns a colored indicator for the work lifecycle.
func WorkStatePill(state domain.WorkState) string {
	switch state {
	case domain.WorkDraft:
		return StyleDim.Render("○ Draft")
	case domain.WorkPlanning:
		return StyleBlue.Render("◐ Planning")
	case domain.WorkRunning:
		return StyleGreen.Render("● Running")
	case domain.WorkPaused:
		return StyleYellow.Render("○ Paused")
	case domain.WorkDone:
		return StyleDim.Render("✔ Done")
	default:
		return StyleDim.Render(string(state))
	}
}

// StageStatePill returns a colored indicator for the stage lifecycle.
func StageStatePill(state domain.StageState) string {
	switch state {
	case domain.StagePlanning:
		return StyleBlue.Render("○ Planning")
	case domain.StageInProgress:
		return StyleGreen.Render("● In Progress")
	case domain.StageToApprove:
		return StyleYellow.Render("◐ To Approve")
	case domain.StageDone:
		return StyleDim.Render("✔ Done")
	default:
		return StyleDim.Render(string(state))
	}
}

// EventStatePill marks cancelled ledger entries.
func EventStatePill(state domain.EventState) string {
	if state == domain.EventCancelled {
		return StyleRed.Render("✖ cancelled")
	}
	return StyleGreen.Render("✔ confirmed")
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

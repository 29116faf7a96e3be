package formatter

import (
	"fmt"
	"strings"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/domain"
)

// FormatAlerts renders alerts as a severity-ordered list.
func FormatAlerts(list []*domain.Alert) string {
	if len(list) == 0 {
		return StyleGreen.Render("No alerts.") + "\n"
	}
	var b strings.Builder
	for _, a := range list {
		origin := Dim(a.RuleCode)
		if !a.IsRuleGenerated() {
			origin = StylePurple.Render("manual")
		}
		msg := a.Message
		if !a.Active {
			msg = Dim(msg + " (dismissed)")
		}
		b.WriteString(fmt.Sprintf("%s  %s  %s  %s\n", SeverityBadge(a.Severity), msg, origin, Dim(a.ID)))
	}
	return b.String()
}

// FormatRebuild summarizes an alert rebuild.
func FormatRebuild(res *app.RebuildResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Rebuilt alerts: %d removed, %d active\n", res.Removed, len(res.Alerts)))
	b.WriteString(FormatAlerts(res.Alerts))
	return b.String()
}

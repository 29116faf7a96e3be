package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/domain"
)

const statusProgressBarWidth = 10

// FormatStatus renders the dashboard of one work.
func FormatStatus(resp *app.StatusResponse, now time.Time) string {
	var b strings.Builder
	w := resp.Work

	var head strings.Builder
	head.WriteString(fmt.Sprintf("%s  %s\n\n", Bold(w.Name), Dim(w.DisplayID())))
	head.WriteString(Field("state", WorkStatePill(w.State)))
	head.WriteString(Field("physical", RenderProgress(w.OverallProgress, 20)))
	head.WriteString(Field("financial", RenderConsumption(w.FinancialProgress, 20)))
	if w.ConsistencyWarning {
		head.WriteString(Field("check", StyleYellow.Render("spending is ahead of physical progress")))
	}
	head.WriteString(Field("source", string(resp.Finance.Source)))
	if w.CutoverDate != nil {
		head.WriteString(Field("cutover", FormatDate(w.CutoverDate)))
	}
	b.WriteString(RenderBox("Work", head.String()))
	b.WriteString("\n\n")

	b.WriteString(Header("Stages"))
	b.WriteString("\n")
	b.WriteString(FormatStages(resp.Stages, now))
	b.WriteString("\n")

	names := make(map[string]string, len(resp.Stages))
	for _, s := range resp.Stages {
		names[s.ID] = s.Name
	}
	b.WriteString(Header("Lines"))
	b.WriteString("\n")
	b.WriteString(FormatLines(resp.Lines, names))
	b.WriteString("\n")

	b.WriteString(Header("Finance"))
	b.WriteString("\n")
	b.WriteString(FormatFinanceSummary(&resp.Finance))
	b.WriteString("\n")

	b.WriteString(Header("Alerts"))
	b.WriteString("\n")
	b.WriteString(FormatAlerts(resp.Alerts))
	return b.String()
}

// FormatStages renders the stage table in sequence order.
func FormatStages(stages []*domain.Stage, now time.Time) string {
	if len(stages) == 0 {
		return Dim("No stages.") + "\n"
	}
	headers := []string{"#", "STAGE", "STATE", "PROGRESS", "LIGHT", "BUDGET", "EXECUTED", "DUE"}
	rows := make([][]string, 0, len(stages))
	for _, s := range stages {
		progress := RenderProgress(s.ProgressPct, statusProgressBarWidth)
		if s.State == domain.StageDone {
			progress = RenderCompactBar(s.ProgressPct, statusProgressBarWidth, true) + Dim(" done")
		}
		rows = append(rows, []string{
			Dim(fmt.Sprintf("%d", s.Sequence)),
			Bold(s.Name),
			StageStatePill(s.State),
			progress,
			LightIndicator(s.TrafficLight),
			FormatMoney(s.BudgetTotal),
			FormatMoney(s.ExecutedTotal),
			DeadlineStyled(s.Deadline, now),
		})
	}
	return RenderTableAligned(headers, rows, []int{5, 6})
}

// FormatLines renders budget lines grouped under their stage name.
func FormatLines(lines []*domain.BudgetLine, stageNames map[string]string) string {
	if len(lines) == 0 {
		return Dim("No budget lines.") + "\n"
	}
	sorted := make([]*domain.BudgetLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	headers := []string{"CODE", "LINE", "STAGE", "PROGRESS", "AMOUNT", "REAL", "USE", "LIGHT"}
	rows := make([][]string, 0, len(sorted))
	for _, l := range sorted {
		stage := Dim("unassigned")
		if l.HasStage() {
			stage = stageNames[*l.StageID]
		}
		rows = append(rows, []string{
			l.Code,
			l.Name,
			stage,
			RenderProgress(l.ProgressPct, statusProgressBarWidth),
			FormatMoney(l.Amount),
			FormatMoney(l.RealTotal),
			FormatPct(l.ConsumptionPct),
			LightIndicator(l.TrafficLight),
		})
	}
	return RenderTableAligned(headers, rows, []int{4, 5, 6})
}

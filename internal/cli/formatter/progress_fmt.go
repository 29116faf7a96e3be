package formatter

import (
	"fmt"
	"strings"

	"github.com/Moiss/building/internal/app"
)

// FormatProgressResult confirms a ledger write and shows the refreshed
// line, stage and work snapshots.
func FormatProgressResult(verb string, res *app.ProgressResult) string {
	var b strings.Builder
	ev := res.Event
	b.WriteString(fmt.Sprintf("%s %s on %s %s\n\n",
		StyleGreen.Render(verb), Bold(fmt.Sprintf("%+.2f%%", ev.PercentDelta)),
		ev.Date.Format("2006-01-02"), Dim("#"+fmt.Sprint(ev.Seq)+" "+ev.ID)))

	if res.Line != nil {
		b.WriteString(Field("line", fmt.Sprintf("%s %s", res.Line.Code, res.Line.Name)))
		b.WriteString(Field("", RenderProgress(res.Line.ProgressPct, 20)))
		b.WriteString(Field("executed", FormatMoney(res.Line.ExecutedAmount)))
	}
	b.WriteString(Field("remaining", FormatPct(res.Remaining)))
	if res.Stage != nil {
		b.WriteString(Field("stage", fmt.Sprintf("%s  %s", res.Stage.Name, RenderProgress(res.Stage.ProgressPct, 10))))
	}
	if res.Work != nil {
		b.WriteString(Field("work", fmt.Sprintf("%s  %s", res.Work.Name, RenderProgress(res.Work.OverallProgress, 10))))
	}
	return b.String()
}

// FormatHistory renders a ledger with running totals.
func FormatHistory(entries []app.HistoryEntry) string {
	if len(entries) == 0 {
		return Dim("No progress recorded.") + "\n"
	}
	headers := []string{"SEQ", "DATE", "DELTA", "TOTAL", "STATE", "BY", "NOTE", "ID"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		ev := e.Event
		total := FormatPct(e.AccumulatedToDate)
		if !ev.IsConfirmed() {
			total = Dim("--")
		}
		rows = append(rows, []string{
			fmt.Sprint(ev.Seq),
			ev.Date.Format("2006-01-02"),
			fmt.Sprintf("%+.2f", ev.PercentDelta),
			total,
			EventStatePill(ev.State),
			ev.AuthorID,
			ev.Note,
			Dim(ev.ID),
		})
	}
	return RenderTableAligned(headers, rows, []int{0, 2, 3})
}

// FormatCloseStage summarizes a stage closure.
func FormatCloseStage(res *app.CloseStageResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s with %d closure entries\n",
		StyleGreen.Render("Closed"), Bold(res.Stage.Name), len(res.ClosureEvents)))
	for _, ev := range res.ClosureEvents {
		target := "stage ledger"
		if ev.LineID != nil {
			target = "line " + TruncID(*ev.LineID)
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", Dim(target), fmt.Sprintf("%+.2f%%", ev.PercentDelta)))
	}
	b.WriteString(Field("work", RenderProgress(res.Work.OverallProgress, 20)))
	if res.WorkCompleted {
		b.WriteString(StyleGreen.Render("Every stage is done; the work is complete.") + "\n")
	}
	return b.String()
}

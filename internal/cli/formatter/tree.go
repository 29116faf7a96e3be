package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Moiss/building/internal/domain"
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

type treeRow struct {
	prefix string
	title  string
	detail string
}

// FormatTree renders the work hierarchy: stages in sequence order, each
// followed by its lines, with progress right-aligned. Unassigned lines
// hang off the work itself.
func FormatTree(w *domain.Work, stages []*domain.Stage, lines []*domain.BudgetLine) string {
	byStage := make(map[string][]*domain.BudgetLine)
	var loose []*domain.BudgetLine
	for _, l := range lines {
		if l.HasStage() {
			byStage[*l.StageID] = append(byStage[*l.StageID], l)
		} else {
			loose = append(loose, l)
		}
	}

	rows := []treeRow{{
		title:  Bold(w.Name) + " " + Dim(w.DisplayID()),
		detail: FormatPct(w.OverallProgress),
	}}

	children := len(stages) + len(loose)
	for i, s := range stages {
		last := i == children-1
		title := s.Name
		switch s.State {
		case domain.StageDone:
			title = StyleGreen.Render("✔ ") + Dim(title)
		case domain.StageInProgress:
			title = StyleYellow.Render("▶ ") + title
		}
		rows = append(rows, treeRow{
			prefix: connector(last),
			title:  title,
			detail: FormatPct(s.ProgressPct) + " " + LightIndicator(s.TrafficLight),
		})

		indent := treePipe
		if last {
			indent = treeBlank
		}
		stageLines := byStage[s.ID]
		for j, l := range stageLines {
			rows = append(rows, lineRow(indent+connector(j == len(stageLines)-1), l))
		}
	}
	for i, l := range loose {
		rows = append(rows, lineRow(connector(len(stages)+i == children-1), l))
	}

	width := 0
	for _, r := range rows {
		if n := lipgloss.Width(r.prefix + r.title); n > width {
			width = n
		}
	}

	var b strings.Builder
	for _, r := range rows {
		left := r.prefix + r.title
		pad := width - lipgloss.Width(left) + 2
		b.WriteString(left)
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(StyleBlue.Render(r.detail))
		b.WriteString("\n")
	}
	return b.String()
}

func connector(last bool) string {
	if last {
		return treeCorner
	}
	return treeBranch
}

func lineRow(prefix string, l *domain.BudgetLine) treeRow {
	return treeRow{
		prefix: prefix,
		title:  fmt.Sprintf("%s %s", Dim(l.Code), l.Name),
		detail: FormatPct(l.ProgressPct),
	}
}

package app

import (
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/finance"
)

// ProgressResult carries the event touched and the refreshed snapshots.
type ProgressResult struct {
	Event *domain.ProgressEvent
	// Line is nil for stage-level ledger entries.
	Line        *domain.BudgetLine
	Stage       *domain.Stage
	Work        *domain.Work
	Accumulated float64
	Remaining   float64
}

// HistoryEntry is one ledger row with the total accumulated up to and
// including it. Cancelled rows report zero.
type HistoryEntry struct {
	Event             *domain.ProgressEvent
	AccumulatedToDate float64
}

// CloseStageResult reports a stage closure.
type CloseStageResult struct {
	Stage         *domain.Stage
	Work          *domain.Work
	ClosureEvents []*domain.ProgressEvent
	WorkCompleted bool
}

// RecomputeResult reports what a hierarchy recompute touched.
type RecomputeResult struct {
	Work   *domain.Work
	Lines  int
	Stages int
}

// RebuildResult is the outcome of an alert rebuild.
type RebuildResult struct {
	WorkID  string
	Removed int
	Alerts  []*domain.Alert
}

// FinanceSummary is the work-level money view.
type FinanceSummary struct {
	WorkID string
	Source domain.CostSource
	finance.WorkFigures
}

// StatusResponse is the dashboard view of one work.
type StatusResponse struct {
	Work    *domain.Work
	Stages  []*domain.Stage
	Lines   []*domain.BudgetLine
	Alerts  []*domain.Alert
	Finance FinanceSummary
}

// ImportResult counts what an import created.
type ImportResult struct {
	Work         *domain.Work
	StageCount   int
	ChapterCount int
	LineCount    int
	CostCount    int
}

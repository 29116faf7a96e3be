package service

import (
	"context"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/importer"
)

type ProgressService interface {
	app.ApplyProgressUseCase
	app.CancelProgressUseCase
	app.RestoreProgressUseCase
	SubmitStage(ctx context.Context, req app.SubmitStageProgressRequest) (*app.ProgressResult, error)
	CloseStage(ctx context.Context, actor domain.Actor, stageID string) (*app.CloseStageResult, error)
	// History returns a line's ledger by date then seq, with running totals.
	History(ctx context.Context, lineID string) ([]app.HistoryEntry, error)
	// StageHistory is History for the manual ledger of a stage without lines.
	StageHistory(ctx context.Context, stageID string) ([]app.HistoryEntry, error)
}

type RollupService interface {
	app.RecomputeHierarchyUseCase
	// RecomputeAll recomputes every work and returns how many were processed.
	RecomputeAll(ctx context.Context) (int, error)
}

type FinanceService interface {
	app.RealTotalsUseCase
	Summary(ctx context.Context, workID string) (*app.FinanceSummary, error)
	// RecomputeFinancials re-derives every money snapshot of the work.
	RecomputeFinancials(ctx context.Context, workID string) (*app.FinanceSummary, error)
}

type AlertService interface {
	app.RebuildAlertsUseCase
	List(ctx context.Context, workID string, activeOnly bool) ([]*domain.Alert, error)
	Dismiss(ctx context.Context, alertID string) (*domain.Alert, error)
	CreateManual(ctx context.Context, req app.CreateAlertRequest) (*domain.Alert, error)
}

type CostService interface {
	Record(ctx context.Context, req app.RecordCostRequest) (*domain.RealCostEntry, error)
	Delete(ctx context.Context, actor domain.Actor, entryID string) error
	ChangeSource(ctx context.Context, req app.ChangeSourceRequest) (*domain.Work, error)
}

type BudgetService interface {
	Validate(ctx context.Context, actor domain.Actor, budgetID string) (*domain.Budget, error)
	Reopen(ctx context.Context, actor domain.Actor, budgetID string) (*domain.Budget, error)
	StartExecution(ctx context.Context, actor domain.Actor, workID string) (*domain.Work, error)
}

type LineService interface {
	// SetAmount changes a line's planned amount. Lines of a validated budget
	// are frozen unless allowMigration is set.
	SetAmount(ctx context.Context, actor domain.Actor, lineID string, amount float64, allowMigration bool) (*domain.BudgetLine, error)
	// AssignStage moves a line to stageID; an empty stageID unassigns it.
	AssignStage(ctx context.Context, actor domain.Actor, lineID, stageID string) (*domain.BudgetLine, error)
	Delete(ctx context.Context, actor domain.Actor, lineID string) error
}

type StatusService interface {
	app.StatusUseCase
}

type ImportService interface {
	app.ImportWorkUseCase
	ImportFromSchema(ctx context.Context, actor domain.Actor, schema *importer.WorkSchema) (*app.ImportResult, error)
}

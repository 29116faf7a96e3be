package repository

import (
	"context"
	"time"

	"github.com/Moiss/building/internal/domain"
)

type WorkRepo interface {
	Create(ctx context.Context, w *domain.Work) error
	GetByID(ctx context.Context, id string) (*domain.Work, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Work, error)
	// List returns every work of the tenant; an empty tenant lists all works.
	List(ctx context.Context, tenantID string) ([]*domain.Work, error)
	Update(ctx context.Context, w *domain.Work) error
	Delete(ctx context.Context, id string) error
}

type StageRepo interface {
	Create(ctx context.Context, s *domain.Stage) error
	GetByID(ctx context.Context, id string) (*domain.Stage, error)
	ListByWork(ctx context.Context, workID string) ([]*domain.Stage, error)
	Update(ctx context.Context, s *domain.Stage) error
	Delete(ctx context.Context, id string) error
}

type BudgetRepo interface {
	Create(ctx context.Context, b *domain.Budget) error
	GetByID(ctx context.Context, id string) (*domain.Budget, error)
	// ListByWork returns budgets oldest first.
	ListByWork(ctx context.Context, workID string) ([]*domain.Budget, error)
	Update(ctx context.Context, b *domain.Budget) error
	CreateChapter(ctx context.Context, c *domain.Chapter) error
	ListChapters(ctx context.Context, budgetID string) ([]*domain.Chapter, error)
}

type LineRepo interface {
	Create(ctx context.Context, l *domain.BudgetLine) error
	GetByID(ctx context.Context, id string) (*domain.BudgetLine, error)
	ListByWork(ctx context.Context, workID string) ([]*domain.BudgetLine, error)
	ListByStage(ctx context.Context, stageID string) ([]*domain.BudgetLine, error)
	ListByBudget(ctx context.Context, budgetID string) ([]*domain.BudgetLine, error)
	Update(ctx context.Context, l *domain.BudgetLine) error
	Delete(ctx context.Context, id string) error
}

type ProgressEventRepo interface {
	Create(ctx context.Context, e *domain.ProgressEvent) error
	GetByID(ctx context.Context, id string) (*domain.ProgressEvent, error)
	// ListByLine returns a line's ledger, in any state, by date then seq.
	ListByLine(ctx context.Context, lineID string) ([]*domain.ProgressEvent, error)
	// ListStageLevel returns the manual ledger of a stage (events without a line).
	ListStageLevel(ctx context.Context, stageID string) ([]*domain.ProgressEvent, error)
	ListByWork(ctx context.Context, workID string) ([]*domain.ProgressEvent, error)
	// UpdateState persists a cancel or restore.
	UpdateState(ctx context.Context, e *domain.ProgressEvent) error
}

type RealCostRepo interface {
	Create(ctx context.Context, c *domain.RealCostEntry) error
	GetByID(ctx context.Context, id string) (*domain.RealCostEntry, error)
	ListByWork(ctx context.Context, workID string) ([]*domain.RealCostEntry, error)
	Delete(ctx context.Context, id string) error
	// MarkMigratedBefore flags the work's entries dated strictly before the
	// cutover as migrated and returns how many changed.
	MarkMigratedBefore(ctx context.Context, workID string, cutover time.Time) (int64, error)
}

type AlertRepo interface {
	Create(ctx context.Context, a *domain.Alert) error
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	// ListByWork orders by severity (most urgent first), then newest first.
	ListByWork(ctx context.Context, workID string, activeOnly bool) ([]*domain.Alert, error)
	Update(ctx context.Context, a *domain.Alert) error
	// DeleteRuleGenerated removes every alert of the work that carries a rule code.
	DeleteRuleGenerated(ctx context.Context, workID string) (int64, error)
}

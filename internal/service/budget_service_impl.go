package service

import (
	"context"
	"time"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
)

type budgetService struct {
	uow      db.UnitOfWork
	deps     Deps
	observer UseCaseObserver
}

func NewBudgetService(uow db.UnitOfWork, deps Deps, observers ...UseCaseObserver) BudgetService {
	return &budgetService{
		uow:      uow,
		deps:     deps.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *budgetService) Validate(ctx context.Context, actor domain.Actor, budgetID string) (budget *domain.Budget, err error) {
	startedAt := time.Now()
	fields := map[string]any{"budget_id": budgetID}
	defer observe(ctx, s.observer, "budget.validate", startedAt, fields, &err)

	now := s.deps.now(nil)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		b, work, err := s.load(ctx, r, actor, budgetID)
		if err != nil {
			return err
		}
		lines, err := r.lines.ListByBudget(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := b.Validate(lines, now); err != nil {
			return err
		}
		if err := r.budgets.Update(ctx, b); err != nil {
			return err
		}
		if work.EnterPlanning(now) {
			if err := r.works.Update(ctx, work); err != nil {
				return err
			}
		}
		fields["version_no"] = b.VersionNo

		if _, err := s.deps.cascade(ctx, tx, moneyScope(work.ID), now); err != nil {
			return err
		}
		budget = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *budgetService) Reopen(ctx context.Context, actor domain.Actor, budgetID string) (budget *domain.Budget, err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "budget.reopen", startedAt, map[string]any{"budget_id": budgetID}, &err)

	if err := s.deps.requireDirector(ctx, actor, "reopen a budget"); err != nil {
		return nil, err
	}
	now := s.deps.now(nil)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		b, work, err := s.load(ctx, r, actor, budgetID)
		if err != nil {
			return err
		}
		if err := b.Reopen(); err != nil {
			return err
		}
		if err := r.budgets.Update(ctx, b); err != nil {
			return err
		}
		if _, err := s.deps.cascade(ctx, tx, moneyScope(work.ID), now); err != nil {
			return err
		}
		budget = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *budgetService) StartExecution(ctx context.Context, actor domain.Actor, workID string) (work *domain.Work, err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "budget.start_execution", startedAt, map[string]any{"work_id": workID}, &err)

	now := s.deps.now(nil)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		w, err := r.works.GetByID(ctx, workID)
		if err != nil {
			return err
		}
		if err := w.CheckTenant(actor); err != nil {
			return err
		}
		if err := w.StartExecution(now); err != nil {
			return err
		}
		if err := r.works.Update(ctx, w); err != nil {
			return err
		}
		work = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return work, nil
}

func (s *budgetService) load(ctx context.Context, r txRepos, actor domain.Actor, budgetID string) (*domain.Budget, *domain.Work, error) {
	b, err := r.budgets.GetByID(ctx, budgetID)
	if err != nil {
		return nil, nil, err
	}
	w, err := r.works.GetByID(ctx, b.WorkID)
	if err != nil {
		return nil, nil, err
	}
	if err := w.CheckTenant(actor); err != nil {
		return nil, nil, err
	}
	return b, w, nil
}

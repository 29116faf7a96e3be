package service

import (
	"context"
	"time"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/finance"
)

type financeService struct {
	uow      db.UnitOfWork
	deps     Deps
	observer UseCaseObserver
}

func NewFinanceService(uow db.UnitOfWork, deps Deps, observers ...UseCaseObserver) FinanceService {
	return &financeService{
		uow:      uow,
		deps:     deps.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *financeService) GetRealTotals(ctx context.Context, workID string, groupBy finance.GroupBy) (totals map[string]float64, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		work, err := r.works.GetByID(ctx, workID)
		if err != nil {
			return err
		}
		entries, err := r.costs.ListByWork(ctx, workID)
		if err != nil {
			return err
		}
		totals = finance.Totals(entries, finance.PolicyFor(work), groupBy)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (s *financeService) Summary(ctx context.Context, workID string) (sum *app.FinanceSummary, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st, err := loadWorkState(ctx, reposFor(tx), workID)
		if err != nil {
			return err
		}
		sum = summaryOf(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *financeService) RecomputeFinancials(ctx context.Context, workID string) (sum *app.FinanceSummary, err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "finance.recompute", startedAt, map[string]any{"work_id": workID}, &err)

	now := s.deps.now(nil)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st, err := s.deps.cascade(ctx, tx, moneyScope(workID), now)
		if err != nil {
			return err
		}
		sum = &app.FinanceSummary{WorkID: workID, Source: finance.PolicyFor(st.work).Source(), WorkFigures: st.figures}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// summaryOf derives the money view from stored lines and cost entries.
func summaryOf(st *workState) *app.FinanceSummary {
	policy := finance.PolicyFor(st.work)
	return &app.FinanceSummary{
		WorkID:      st.work.ID,
		Source:      policy.Source(),
		WorkFigures: finance.Figures(st.validatedLines(), finance.Sum(st.entries, policy)),
	}
}

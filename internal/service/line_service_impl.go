package service

import (
	"context"
	"time"

	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

type lineService struct {
	uow      db.UnitOfWork
	deps     Deps
	observer UseCaseObserver
}

func NewLineService(uow db.UnitOfWork, deps Deps, observers ...UseCaseObserver) LineService {
	return &lineService{
		uow:      uow,
		deps:     deps.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *lineService) SetAmount(ctx context.Context, actor domain.Actor, lineID string, amount float64, allowMigration bool) (line *domain.BudgetLine, err error) {
	startedAt := time.Now()
	fields := map[string]any{"line_id": lineID, "amount": amount, "migration": allowMigration}
	defer observe(ctx, s.observer, "line.set_amount", startedAt, fields, &err)

	if amount < 0 {
		return nil, apperrors.Consistency(apperrors.CodeNegativeAmount, "line amount cannot be negative").
			WithParams(map[string]interface{}{"amount": amount})
	}
	now := s.deps.now(nil)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		l, _, err := s.load(ctx, r, actor, lineID)
		if err != nil {
			return err
		}
		budget, err := r.budgets.GetByID(ctx, l.BudgetID)
		if err != nil {
			return err
		}
		if budget.IsValidated() && !allowMigration {
			return apperrors.Validation(apperrors.CodeImmutableField,
				"amount of a line in a validated budget cannot change").
				WithParams(map[string]interface{}{"line_id": l.ID, "budget_id": budget.ID})
		}

		l.Amount = amount
		if l.Distributed > amount {
			l.Distributed = amount
		}
		l.UpdatedAt = now
		if err := r.lines.Update(ctx, l); err != nil {
			return err
		}

		st, err := s.deps.cascade(ctx, tx, scope{workID: l.WorkID, stageIDs: nonEmpty(l.StageIDOrEmpty()), lineIDs: []string{l.ID}}, now)
		if err != nil {
			return err
		}
		line = findLine(st.lines, l.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *lineService) AssignStage(ctx context.Context, actor domain.Actor, lineID, stageID string) (line *domain.BudgetLine, err error) {
	startedAt := time.Now()
	fields := map[string]any{"line_id": lineID, "stage_id": stageID}
	defer observe(ctx, s.observer, "line.assign_stage", startedAt, fields, &err)

	now := s.deps.now(nil)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		l, _, err := s.load(ctx, r, actor, lineID)
		if err != nil {
			return err
		}
		previous := l.StageIDOrEmpty()

		if stageID == "" {
			if l.ProgressPct > 0 {
				return apperrors.Validation(apperrors.CodeInvalidState,
					"cannot unassign the stage of a line with recorded progress").
					WithParams(map[string]interface{}{"line_id": l.ID, "progress_pct": l.ProgressPct})
			}
		} else {
			stage, err := r.stages.GetByID(ctx, stageID)
			if err != nil {
				return err
			}
			if stage.WorkID != l.WorkID {
				return apperrors.ErrCrossProjectf("stage", stage.ID)
			}
		}

		l.StageID = stringPtr(stageID)
		l.UpdatedAt = now
		if err := r.lines.Update(ctx, l); err != nil {
			return err
		}
		fields["previous_stage_id"] = previous

		st, err := s.deps.cascade(ctx, tx, scope{workID: l.WorkID, stageIDs: nonEmpty(previous, stageID), lineIDs: []string{l.ID}}, now)
		if err != nil {
			return err
		}
		line = findLine(st.lines, l.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *lineService) Delete(ctx context.Context, actor domain.Actor, lineID string) (err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "line.delete", startedAt, map[string]any{"line_id": lineID}, &err)

	now := s.deps.now(nil)
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		l, work, err := s.load(ctx, r, actor, lineID)
		if err != nil {
			return err
		}
		if l.ProgressPct > 0 {
			return apperrors.Validation(apperrors.CodeInvalidState, "cannot delete a line with recorded progress")
		}
		budget, err := r.budgets.GetByID(ctx, l.BudgetID)
		if err != nil {
			return err
		}
		if budget.IsValidated() {
			return apperrors.Validation(apperrors.CodeImmutableField, "cannot delete a line of a validated budget")
		}
		if work.State == domain.WorkRunning {
			return apperrors.Validation(apperrors.CodeInvalidState, "cannot delete a line while the work is running")
		}

		if err := r.lines.Delete(ctx, l.ID); err != nil {
			return err
		}
		_, err = s.deps.cascade(ctx, tx, scope{workID: work.ID, stageIDs: nonEmpty(l.StageIDOrEmpty()), lineIDs: []string{}}, now)
		return err
	})
}

func (s *lineService) load(ctx context.Context, r txRepos, actor domain.Actor, lineID string) (*domain.BudgetLine, *domain.Work, error) {
	l, err := r.lines.GetByID(ctx, lineID)
	if err != nil {
		return nil, nil, err
	}
	w, err := r.works.GetByID(ctx, l.WorkID)
	if err != nil {
		return nil, nil, err
	}
	if err := w.CheckTenant(actor); err != nil {
		return nil, nil, err
	}
	return l, w, nil
}

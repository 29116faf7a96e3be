package service

import (
	"context"
	"time"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/finance"
	apperrors "github.com/Moiss/building/internal/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type costService struct {
	uow      db.UnitOfWork
	deps     Deps
	observer UseCaseObserver
}

func NewCostService(uow db.UnitOfWork, deps Deps, observers ...UseCaseObserver) CostService {
	return &costService{
		uow:      uow,
		deps:     deps.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *costService) Record(ctx context.Context, req app.RecordCostRequest) (entry *domain.RealCostEntry, err error) {
	startedAt := time.Now()
	fields := map[string]any{"work_id": req.WorkID, "amount": req.Amount}
	defer observe(ctx, s.observer, "cost.record", startedAt, fields, &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	now := s.deps.now(nil)

	source := req.Source
	if source == "" {
		source = domain.CostSourceInternal
	}
	entry = &domain.RealCostEntry{
		ID:          uuid.New().String(),
		WorkID:      req.WorkID,
		StageID:     stringPtr(req.StageID),
		LineID:      stringPtr(req.LineID),
		Date:        domain.DateOnly(req.Date),
		Amount:      req.Amount,
		Description: req.Description,
		Source:      source,
		CreatedAt:   now,
	}
	if err := entry.Check(); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		work, err := r.works.GetByID(ctx, req.WorkID)
		if err != nil {
			return err
		}
		if err := work.CheckTenant(req.Actor); err != nil {
			return err
		}

		if entry.LineID != nil {
			line, err := r.lines.GetByID(ctx, *entry.LineID)
			if err != nil {
				return err
			}
			if line.WorkID != work.ID {
				return apperrors.ErrCrossProjectf("budget line", line.ID)
			}
			if line.HasStage() {
				if entry.StageID != nil && *entry.StageID != *line.StageID {
					return apperrors.ErrCrossProjectf("stage", *entry.StageID)
				}
				entry.StageID = stringPtr(*line.StageID)
			}
		}
		if entry.StageID != nil {
			stage, err := r.stages.GetByID(ctx, *entry.StageID)
			if err != nil {
				return err
			}
			if stage.WorkID != work.ID {
				return apperrors.ErrCrossProjectf("stage", stage.ID)
			}
		}

		if err := finance.PolicyFor(work).Accepts(entry); err != nil {
			return err
		}
		if err := r.costs.Create(ctx, entry); err != nil {
			return err
		}
		fields["entry_id"] = entry.ID

		_, err = s.deps.cascade(ctx, tx, moneyScope(work.ID), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *costService) Delete(ctx context.Context, actor domain.Actor, entryID string) (err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "cost.delete", startedAt, map[string]any{"entry_id": entryID}, &err)

	now := s.deps.now(nil)
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		entry, err := r.costs.GetByID(ctx, entryID)
		if err != nil {
			return err
		}
		work, err := r.works.GetByID(ctx, entry.WorkID)
		if err != nil {
			return err
		}
		if err := work.CheckTenant(actor); err != nil {
			return err
		}
		if err := entry.EnsureMutable(); err != nil {
			return err
		}
		if err := r.costs.Delete(ctx, entry.ID); err != nil {
			return err
		}
		_, err = s.deps.cascade(ctx, tx, moneyScope(work.ID), now)
		return err
	})
}

func (s *costService) ChangeSource(ctx context.Context, req app.ChangeSourceRequest) (work *domain.Work, err error) {
	startedAt := time.Now()
	fields := map[string]any{"work_id": req.WorkID, "source": string(req.Source)}
	defer observe(ctx, s.observer, "cost.change_source", startedAt, fields, &err)

	if err := s.deps.requireDirector(ctx, req.Actor, "change the cost source"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	now := s.deps.now(nil)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		w, err := r.works.GetByID(ctx, req.WorkID)
		if err != nil {
			return err
		}
		if err := w.CheckTenant(req.Actor); err != nil {
			return err
		}

		w.CostSource = req.Source
		w.CutoverDate = nil
		if req.Source == domain.CostSourceAccounting {
			cut := domain.DateOnly(*req.Cutover)
			w.CutoverDate = &cut
			if req.MarkMigrated {
				n, err := r.costs.MarkMigratedBefore(ctx, w.ID, cut)
				if err != nil {
					return err
				}
				fields["migrated"] = n
				s.deps.Logger.Info("cost entries migrated to accounting",
					zap.String("work_id", w.ID), zap.Int64("entries", n))
			}
		}
		w.UpdatedAt = now
		if err := r.works.Update(ctx, w); err != nil {
			return err
		}

		st, err := s.deps.cascade(ctx, tx, moneyScope(w.ID), now)
		if err != nil {
			return err
		}
		work = st.work
		return nil
	})
	if err != nil {
		return nil, err
	}
	return work, nil
}

// moneyScope refreshes financial snapshots without re-reading any ledger.
func moneyScope(workID string) scope {
	return scope{workID: workID, stageIDs: []string{}, lineIDs: []string{}}
}

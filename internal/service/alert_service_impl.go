package service

import (
	"context"
	"time"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
	"github.com/google/uuid"
)

type alertService struct {
	uow      db.UnitOfWork
	deps     Deps
	observer UseCaseObserver
}

func NewAlertService(uow db.UnitOfWork, deps Deps, observers ...UseCaseObserver) AlertService {
	return &alertService{
		uow:      uow,
		deps:     deps.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

// Rebuild evaluates the rule battery over the stored snapshots and replaces
// the work's rule-generated alerts. Snapshots are not recomputed here.
func (s *alertService) Rebuild(ctx context.Context, workID string) (res *app.RebuildResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"work_id": workID}
	defer observe(ctx, s.observer, "alerts.rebuild", startedAt, fields, &err)

	now := s.deps.now(nil)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		st, err := loadWorkState(ctx, r, workID)
		if err != nil {
			return err
		}
		st.figures = summaryOf(st).WorkFigures

		removed, created, err := s.deps.rebuildAlerts(ctx, r, st, now)
		if err != nil {
			return err
		}
		fields["removed"] = removed
		fields["created"] = len(created)
		res = &app.RebuildResult{WorkID: workID, Removed: int(removed), Alerts: created}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *alertService) List(ctx context.Context, workID string, activeOnly bool) (list []*domain.Alert, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if _, err := r.works.GetByID(ctx, workID); err != nil {
			return err
		}
		list, err = r.alerts.ListByWork(ctx, workID, activeOnly)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *alertService) Dismiss(ctx context.Context, alertID string) (a *domain.Alert, err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "alerts.dismiss", startedAt, map[string]any{"alert_id": alertID}, &err)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		a, err = r.alerts.GetByID(ctx, alertID)
		if err != nil {
			return err
		}
		a.Active = false
		return r.alerts.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *alertService) CreateManual(ctx context.Context, req app.CreateAlertRequest) (a *domain.Alert, err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "alerts.create_manual", startedAt, map[string]any{"work_id": req.WorkID}, &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	a = &domain.Alert{
		ID:        uuid.New().String(),
		WorkID:    req.WorkID,
		Message:   req.Message,
		Severity:  req.Severity,
		Type:      domain.AlertManual,
		Active:    true,
		CreatedAt: s.deps.now(nil),
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if _, err := r.works.GetByID(ctx, req.WorkID); err != nil {
			return err
		}
		return r.alerts.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

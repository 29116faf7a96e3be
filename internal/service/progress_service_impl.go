package service

import (
	"context"
	"time"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/ledger"
	apperrors "github.com/Moiss/building/internal/pkg/errors"
	"github.com/Moiss/building/internal/pkg/metrics"
	"github.com/google/uuid"
)

// closureTolerance is the smallest remainder a stage closure bothers to record.
const closureTolerance = 1e-9

type progressService struct {
	uow      db.UnitOfWork
	deps     Deps
	observer UseCaseObserver
}

func NewProgressService(uow db.UnitOfWork, deps Deps, observers ...UseCaseObserver) ProgressService {
	return &progressService{
		uow:      uow,
		deps:     deps.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *progressService) Submit(ctx context.Context, req app.SubmitProgressRequest) (res *app.ProgressResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"work_id": req.WorkID, "line_id": req.LineID, "percent_delta": req.PercentDelta}
	defer observe(ctx, s.observer, "progress.submit", startedAt, fields, &err)
	defer countLedgerWrite("submit", &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	now := s.deps.now(req.Now)
	if err := ledger.ValidateDate(req.Date, now); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		line, err := r.lines.GetByID(ctx, req.LineID)
		if err != nil {
			return err
		}
		if !line.HasStage() {
			return apperrors.ErrMissingStageAssignmentf(line.ID)
		}
		if line.WorkID != req.WorkID {
			return apperrors.ErrCrossProjectf("budget line", line.ID)
		}
		if req.StageID != "" && req.StageID != *line.StageID {
			return apperrors.ErrCrossProjectf("stage", req.StageID)
		}
		stage, err := r.stages.GetByID(ctx, *line.StageID)
		if err != nil {
			return err
		}
		if stage.WorkID != req.WorkID {
			return apperrors.ErrCrossProjectf("stage", stage.ID)
		}
		work, err := r.works.GetByID(ctx, req.WorkID)
		if err != nil {
			return err
		}
		if err := work.CheckTenant(req.Actor); err != nil {
			return err
		}

		events, err := r.events.ListByLine(ctx, line.ID)
		if err != nil {
			return err
		}
		if err := ledger.CheckCapacity(ledger.Accumulated(events), req.PercentDelta, s.deps.Settings.Epsilon); err != nil {
			return err
		}

		ev := &domain.ProgressEvent{
			ID:           uuid.New().String(),
			WorkID:       work.ID,
			StageID:      stage.ID,
			LineID:       &line.ID,
			Seq:          ledger.NextSeq(events),
			Date:         domain.DateOnly(req.Date),
			PercentDelta: req.PercentDelta,
			AuthorID:     req.Actor.UserID,
			Note:         req.Note,
			Origin:       domain.OriginUser,
			State:        domain.EventConfirmed,
			CreatedAt:    now,
		}
		if err := r.events.Create(ctx, ev); err != nil {
			return err
		}
		fields["event_id"] = ev.ID

		res, err = s.finish(ctx, tx, ev, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *progressService) SubmitStage(ctx context.Context, req app.SubmitStageProgressRequest) (res *app.ProgressResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"work_id": req.WorkID, "stage_id": req.StageID, "percent_delta": req.PercentDelta}
	defer observe(ctx, s.observer, "progress.submit_stage", startedAt, fields, &err)
	defer countLedgerWrite("submit_stage", &err)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	now := s.deps.now(req.Now)
	if err := ledger.ValidateDate(req.Date, now); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		stage, err := r.stages.GetByID(ctx, req.StageID)
		if err != nil {
			return err
		}
		if stage.WorkID != req.WorkID {
			return apperrors.ErrCrossProjectf("stage", stage.ID)
		}
		work, err := r.works.GetByID(ctx, req.WorkID)
		if err != nil {
			return err
		}
		if err := work.CheckTenant(req.Actor); err != nil {
			return err
		}
		lines, err := r.lines.ListByStage(ctx, stage.ID)
		if err != nil {
			return err
		}
		if len(lines) > 0 {
			return apperrors.Validation(apperrors.CodeInvalidState,
				"stage has budget lines; record progress on its lines instead")
		}

		events, err := r.events.ListStageLevel(ctx, stage.ID)
		if err != nil {
			return err
		}
		if err := ledger.CheckCapacity(ledger.Accumulated(events), req.PercentDelta, s.deps.Settings.Epsilon); err != nil {
			return err
		}

		ev := &domain.ProgressEvent{
			ID:           uuid.New().String(),
			WorkID:       work.ID,
			StageID:      stage.ID,
			Seq:          ledger.NextSeq(events),
			Date:         domain.DateOnly(req.Date),
			PercentDelta: req.PercentDelta,
			AuthorID:     req.Actor.UserID,
			Note:         req.Note,
			Origin:       domain.OriginUser,
			State:        domain.EventConfirmed,
			CreatedAt:    now,
		}
		if err := r.events.Create(ctx, ev); err != nil {
			return err
		}
		fields["event_id"] = ev.ID

		res, err = s.finish(ctx, tx, ev, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *progressService) Cancel(ctx context.Context, actor domain.Actor, eventID string) (res *app.ProgressResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"event_id": eventID, "user_id": actor.UserID}
	defer observe(ctx, s.observer, "progress.cancel", startedAt, fields, &err)
	defer countLedgerWrite("cancel", &err)

	if err := s.deps.requireDirector(ctx, actor, "cancel progress"); err != nil {
		return nil, err
	}
	now := s.deps.now(nil)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		ev, err := r.events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := s.checkEventTenant(ctx, r, ev, actor); err != nil {
			return err
		}
		if err := ev.Cancel(actor.UserID, now); err != nil {
			return err
		}
		if err := r.events.UpdateState(ctx, ev); err != nil {
			return err
		}

		res, err = s.finish(ctx, tx, ev, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *progressService) Restore(ctx context.Context, actor domain.Actor, eventID string) (res *app.ProgressResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"event_id": eventID, "user_id": actor.UserID}
	defer observe(ctx, s.observer, "progress.restore", startedAt, fields, &err)
	defer countLedgerWrite("restore", &err)

	if err := s.deps.requireDirector(ctx, actor, "restore progress"); err != nil {
		return nil, err
	}
	now := s.deps.now(nil)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		ev, err := r.events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := s.checkEventTenant(ctx, r, ev, actor); err != nil {
			return err
		}

		// The stored ledger still holds ev as cancelled, so it does not count
		// toward the accumulated total checked below.
		events, err := ledgerOf(ctx, r, ev)
		if err != nil {
			return err
		}
		if err := ev.Restore(); err != nil {
			return err
		}
		if err := ledger.CheckCapacity(ledger.Accumulated(events), ev.PercentDelta, s.deps.Settings.Epsilon); err != nil {
			return err
		}
		if err := r.events.UpdateState(ctx, ev); err != nil {
			return err
		}

		res, err = s.finish(ctx, tx, ev, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *progressService) CloseStage(ctx context.Context, actor domain.Actor, stageID string) (res *app.CloseStageResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"stage_id": stageID, "user_id": actor.UserID}
	defer observe(ctx, s.observer, "progress.close_stage", startedAt, fields, &err)

	if err := s.deps.requireDirector(ctx, actor, "close a stage"); err != nil {
		return nil, err
	}
	now := s.deps.now(nil)
	today := domain.DateOnly(now)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)

		stage, err := r.stages.GetByID(ctx, stageID)
		if err != nil {
			return err
		}
		work, err := r.works.GetByID(ctx, stage.WorkID)
		if err != nil {
			return err
		}
		if err := work.CheckTenant(actor); err != nil {
			return err
		}
		if err := stage.Close(now); err != nil {
			return err
		}

		newClosure := func(lineID *string, seq int, delta float64) *domain.ProgressEvent {
			return &domain.ProgressEvent{
				ID:           uuid.New().String(),
				WorkID:       work.ID,
				StageID:      stage.ID,
				LineID:       lineID,
				Seq:          seq,
				Date:         today,
				PercentDelta: delta,
				AuthorID:     actor.UserID,
				Note:         "stage closed",
				Origin:       domain.OriginStageClosure,
				State:        domain.EventConfirmed,
				CreatedAt:    now,
			}
		}

		lines, err := r.lines.ListByStage(ctx, stage.ID)
		if err != nil {
			return err
		}
		var closures []*domain.ProgressEvent
		if len(lines) == 0 {
			events, err := r.events.ListStageLevel(ctx, stage.ID)
			if err != nil {
				return err
			}
			if rem := ledger.Remaining(ledger.Accumulated(events)); rem > closureTolerance {
				closures = append(closures, newClosure(nil, ledger.NextSeq(events), rem))
			}
		}
		for _, l := range lines {
			events, err := r.events.ListByLine(ctx, l.ID)
			if err != nil {
				return err
			}
			if rem := ledger.Remaining(ledger.Accumulated(events)); rem > closureTolerance {
				lineID := l.ID
				closures = append(closures, newClosure(&lineID, ledger.NextSeq(events), rem))
			}
		}
		for _, ev := range closures {
			if err := r.events.Create(ctx, ev); err != nil {
				return err
			}
		}
		metrics.ProgressEventsTotal.WithLabelValues("close_stage", "accepted").Add(float64(len(closures)))

		if err := r.stages.Update(ctx, stage); err != nil {
			return err
		}

		lineIDs := make([]string, 0, len(lines))
		for _, l := range lines {
			lineIDs = append(lineIDs, l.ID)
		}
		st, err := s.deps.cascade(ctx, tx, scope{workID: work.ID, stageIDs: []string{stage.ID}, lineIDs: lineIDs}, now)
		if err != nil {
			return err
		}

		completed := st.work.CompleteIfAllStagesDone(st.stages, now)
		if completed {
			if err := r.works.Update(ctx, st.work); err != nil {
				return err
			}
		}
		fields["closure_events"] = len(closures)
		fields["work_completed"] = completed

		res = &app.CloseStageResult{
			Stage:         findStage(st.stages, stage.ID),
			Work:          st.work,
			ClosureEvents: closures,
			WorkCompleted: completed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *progressService) History(ctx context.Context, lineID string) (entries []app.HistoryEntry, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if _, err := r.lines.GetByID(ctx, lineID); err != nil {
			return err
		}
		events, err := r.events.ListByLine(ctx, lineID)
		if err != nil {
			return err
		}
		entries = historyOf(events)
		return nil
	})
	return entries, err
}

func (s *progressService) StageHistory(ctx context.Context, stageID string) (entries []app.HistoryEntry, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := reposFor(tx)
		if _, err := r.stages.GetByID(ctx, stageID); err != nil {
			return err
		}
		events, err := r.events.ListStageLevel(ctx, stageID)
		if err != nil {
			return err
		}
		entries = historyOf(events)
		return nil
	})
	return entries, err
}

// finish runs the cascade for an event's line and stage and assembles the
// result from the refreshed snapshots.
func (s *progressService) finish(ctx context.Context, tx db.DBTX, ev *domain.ProgressEvent, now time.Time) (*app.ProgressResult, error) {
	sc := scope{workID: ev.WorkID, stageIDs: nonEmpty(ev.StageID)}
	sc.lineIDs = []string{}
	if ev.LineID != nil {
		sc.lineIDs = []string{*ev.LineID}
	}
	st, err := s.deps.cascade(ctx, tx, sc, now)
	if err != nil {
		return nil, err
	}

	events, err := ledgerOf(ctx, reposFor(tx), ev)
	if err != nil {
		return nil, err
	}
	acc := ledger.Accumulated(events)

	res := &app.ProgressResult{
		Event:       ev,
		Stage:       findStage(st.stages, ev.StageID),
		Work:        st.work,
		Accumulated: acc,
		Remaining:   ledger.Remaining(acc),
	}
	if ev.LineID != nil {
		res.Line = findLine(st.lines, *ev.LineID)
	}
	return res, nil
}

func (s *progressService) checkEventTenant(ctx context.Context, r txRepos, ev *domain.ProgressEvent, actor domain.Actor) error {
	work, err := r.works.GetByID(ctx, ev.WorkID)
	if err != nil {
		return err
	}
	return work.CheckTenant(actor)
}

// ledgerOf loads the ledger an event belongs to: its line's, or the manual
// ledger of its stage.
func ledgerOf(ctx context.Context, r txRepos, ev *domain.ProgressEvent) ([]*domain.ProgressEvent, error) {
	if ev.LineID != nil {
		return r.events.ListByLine(ctx, *ev.LineID)
	}
	return r.events.ListStageLevel(ctx, ev.StageID)
}

func historyOf(events []*domain.ProgressEvent) []app.HistoryEntry {
	entries := make([]app.HistoryEntry, 0, len(events))
	for _, e := range events {
		entry := app.HistoryEntry{Event: e}
		if e.IsConfirmed() {
			entry.AccumulatedToDate = ledger.AccumulatedAt(events, e)
		}
		entries = append(entries, entry)
	}
	return entries
}

func countLedgerWrite(action string, errp *error) {
	result := "accepted"
	if *errp != nil {
		result = "rejected"
	}
	metrics.ProgressEventsTotal.WithLabelValues(action, result).Inc()
}

func findStage(stages []*domain.Stage, id string) *domain.Stage {
	for _, s := range stages {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func findLine(lines []*domain.BudgetLine, id string) *domain.BudgetLine {
	for _, l := range lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type rollupService struct {
	uow      db.UnitOfWork
	works    repository.WorkRepo
	deps     Deps
	observer UseCaseObserver
}

// NewRollupService builds the explicit recompute entry points. works lists
// the works for RecomputeAll outside any transaction.
func NewRollupService(uow db.UnitOfWork, works repository.WorkRepo, deps Deps, observers ...UseCaseObserver) RollupService {
	return &rollupService{
		uow:      uow,
		works:    works,
		deps:     deps.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *rollupService) RecomputeHierarchy(ctx context.Context, workID string, stageIDs, lineIDs []string) (res *app.RecomputeResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"work_id": workID, "stages": len(stageIDs), "lines": len(lineIDs)}
	defer observe(ctx, s.observer, "rollup.recompute_hierarchy", startedAt, fields, &err)

	// No ids at all means the whole work. Line ids alone pull in their stages.
	sc := scope{workID: workID}
	if len(lineIDs) > 0 {
		sc.lineIDs = lineIDs
		sc.stageIDs = []string{}
	}
	if len(stageIDs) > 0 {
		sc.stageIDs = stageIDs
	}
	now := s.deps.now(nil)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st, err := s.deps.cascade(ctx, tx, sc, now)
		if err != nil {
			return err
		}
		res = &app.RecomputeResult{Work: st.work, Lines: st.linesRecomputed, Stages: st.stagesRecomputed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *rollupService) RecomputeAll(ctx context.Context) (count int, err error) {
	startedAt := time.Now()
	fields := map[string]any{"concurrency": s.deps.Settings.Concurrency}
	defer observe(ctx, s.observer, "rollup.recompute_all", startedAt, fields, &err)

	works, err := s.works.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("listing works: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deps.Settings.Concurrency)
	for _, w := range works {
		workID := w.ID
		g.Go(func() error {
			if _, err := s.RecomputeHierarchy(gctx, workID, nil, nil); err != nil {
				return fmt.Errorf("recomputing work %s: %w", workID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	fields["works"] = len(works)
	s.deps.Logger.Info("recomputed all works", zap.Int("works", len(works)))
	return len(works), nil
}

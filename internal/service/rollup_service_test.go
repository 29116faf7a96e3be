package service

import (
	"context"
	"testing"

	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) rollupSvc() RollupService {
	return NewRollupService(e.uow, e.works, e.deps)
}

func TestRecomputeHierarchy_RepairsLedgerWrittenDirectly(t *testing.T) {
	e := newTestEnv(t)
	s := e.seedSite(t)
	ctx := context.Background()

	require.NoError(t, e.events.Create(ctx, testutil.NewTestEvent(s.a, 1, testutil.Date(2026, 6, 1), 40)))
	require.NoError(t, e.events.Create(ctx, testutil.NewTestEvent(s.c, 1, testutil.Date(2026, 6, 2), 25)))
	assert.Zero(t, e.line(t, s.a.ID).ProgressPct, "snapshots are stale until recomputed")

	res, err := e.rollupSvc().RecomputeHierarchy(ctx, s.work.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, 2, res.Stages)

	assert.Equal(t, 40.0, e.line(t, s.a.ID).ProgressPct)
	assert.Equal(t, 400.0, e.line(t, s.a.ID).ExecutedAmount)
	assert.InDelta(t, 10.0, e.stage(t, s.s1.ID).ProgressPct, 1e-9)
	assert.InDelta(t, 25.0, e.stage(t, s.s2.ID).ProgressPct, 1e-9)
	// (10*4000 + 25*4000) / 8000
	assert.InDelta(t, 17.5, res.Work.OverallProgress, 1e-9)
}

func TestRecomputeHierarchy_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	s := e.seedSite(t)
	ctx := context.Background()

	_, err := e.progress().Submit(ctx, submitReq(s.work, s.b, 35))
	require.NoError(t, err)
	before := *e.line(t, s.b.ID)
	beforeWork := e.work(t, s.work.ID).OverallProgress

	for i := 0; i < 3; i++ {
		_, err := e.rollupSvc().RecomputeHierarchy(ctx, s.work.ID, nil, nil)
		require.NoError(t, err)
	}

	after := e.line(t, s.b.ID)
	assert.Equal(t, before.ProgressPct, after.ProgressPct)
	assert.Equal(t, before.ExecutedAmount, after.ExecutedAmount)
	assert.Equal(t, before.LastProgressDate, after.LastProgressDate)
	assert.Equal(t, beforeWork, e.work(t, s.work.ID).OverallProgress)
}

func TestRecomputeHierarchy_ScopedToLines(t *testing.T) {
	e := newTestEnv(t)
	s := e.seedSite(t)
	ctx := context.Background()

	require.NoError(t, e.events.Create(ctx, testutil.NewTestEvent(s.a, 1, testToday, 40)))
	require.NoError(t, e.events.Create(ctx, testutil.NewTestEvent(s.c, 1, testToday, 25)))

	res, err := e.rollupSvc().RecomputeHierarchy(ctx, s.work.ID, nil, []string{s.a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Lines)
	assert.Equal(t, 1, res.Stages, "only the line's stage follows")

	assert.Equal(t, 40.0, e.line(t, s.a.ID).ProgressPct)
	assert.Zero(t, e.line(t, s.c.ID).ProgressPct, "out-of-scope line untouched")
	assert.Zero(t, e.stage(t, s.s2.ID).ProgressPct)
}

func TestRecomputeHierarchy_WeightsAndFallback(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	// Two stages without lines weigh nothing, so the work takes their mean.
	w := testutil.NewTestWork("Bodega")
	require.NoError(t, e.works.Create(ctx, w))
	first := testutil.NewTestStage(w.ID, "Uno", testutil.WithSequence(1))
	second := testutil.NewTestStage(w.ID, "Dos", testutil.WithSequence(2))
	require.NoError(t, e.stages.Create(ctx, first))
	require.NoError(t, e.stages.Create(ctx, second))

	svc := e.progress()
	for _, step := range []struct {
		stage *domain.Stage
		delta float64
	}{{first, 60}, {second, 20}} {
		_, err := svc.SubmitStage(ctx, stageReq(w, step.stage, step.delta))
		require.NoError(t, err)
	}

	res, err := e.rollupSvc().RecomputeHierarchy(ctx, w.ID, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, res.Work.OverallProgress, 1e-9)
}

func TestRecomputeHierarchy_UnknownWork(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.rollupSvc().RecomputeHierarchy(context.Background(), "missing", nil, nil)
	require.Error(t, err)
}

func TestRecomputeAll(t *testing.T) {
	e := newTestEnv(t)
	first := e.seedSite(t)
	second := e.seedSite(t)
	ctx := context.Background()

	require.NoError(t, e.events.Create(ctx, testutil.NewTestEvent(first.a, 1, testToday, 100)))
	require.NoError(t, e.events.Create(ctx, testutil.NewTestEvent(second.c, 1, testToday, 50)))

	deps := e.deps
	deps.Settings = DefaultSettings()
	deps.Settings.Concurrency = 4
	n, err := NewRollupService(e.uow, e.works, deps).RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.InDelta(t, 12.5, e.work(t, first.work.ID).OverallProgress, 1e-9)
	assert.InDelta(t, 25.0, e.work(t, second.work.ID).OverallProgress, 1e-9)
}

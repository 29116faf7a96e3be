package repository

import (
	"context"
	"testing"

	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressEventRepo_LineLedgerOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteProgressEventRepo(db)

	e2 := testutil.NewTestEvent(h.line, 2, testutil.Date(2026, 1, 10), 10)
	e1 := testutil.NewTestEvent(h.line, 1, testutil.Date(2026, 1, 10), 20)
	e0 := testutil.NewTestEvent(h.line, 3, testutil.Date(2026, 1, 5), 5)
	for _, e := range []*domain.ProgressEvent{e2, e1, e0} {
		require.NoError(t, repo.Create(ctx, e))
	}

	events, err := repo.ListByLine(ctx, h.line.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{e0.ID, e1.ID, e2.ID}, []string{events[0].ID, events[1].ID, events[2].ID})
	assert.Equal(t, h.stage.ID, events[0].StageID)
	require.NotNil(t, events[0].LineID)
}

func TestProgressEventRepo_StageLevelLedgerIsSeparate(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteProgressEventRepo(db)

	require.NoError(t, repo.Create(ctx, testutil.NewTestEvent(h.line, 1, testutil.Date(2026, 1, 5), 30)))
	manual := testutil.NewTestEvent(h.line, 1, testutil.Date(2026, 1, 6), 15)
	manual.LineID = nil
	require.NoError(t, repo.Create(ctx, manual))

	stageLevel, err := repo.ListStageLevel(ctx, h.stage.ID)
	require.NoError(t, err)
	require.Len(t, stageLevel, 1)
	assert.True(t, stageLevel[0].IsStageLevel())

	all, err := repo.ListByWork(ctx, h.work.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProgressEventRepo_CancelAndRestore(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteProgressEventRepo(db)

	e := testutil.NewTestEvent(h.line, 1, testutil.Date(2026, 1, 5), 30)
	require.NoError(t, repo.Create(ctx, e))

	require.NoError(t, e.Cancel("director-1", testutil.Date(2026, 1, 6)))
	require.NoError(t, repo.UpdateState(ctx, e))

	fetched, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCancelled, fetched.State)
	assert.Equal(t, "director-1", fetched.CancelledBy)
	require.NotNil(t, fetched.CancelledAt)

	require.NoError(t, fetched.Restore())
	require.NoError(t, repo.UpdateState(ctx, fetched))
	restored, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, restored.IsConfirmed())
	assert.Nil(t, restored.CancelledAt)
	assert.Empty(t, restored.CancelledBy)
}

func TestRealCostRepo_MarkMigratedBefore(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteRealCostRepo(db)

	before := testutil.NewTestCostEntry(h.work.ID, 100, testutil.Date(2026, 2, 27), testutil.WithCostLine(h.line))
	onCutover := testutil.NewTestCostEntry(h.work.ID, 50, testutil.Date(2026, 3, 1))
	require.NoError(t, repo.Create(ctx, before))
	require.NoError(t, repo.Create(ctx, onCutover))

	n, err := repo.MarkMigratedBefore(ctx, h.work.ID, testutil.Date(2026, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	fetched, err := repo.GetByID(ctx, before.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Migrated)
	require.NotNil(t, fetched.LineID)
	assert.Equal(t, h.line.ID, *fetched.LineID)
	require.NotNil(t, fetched.StageID)
	assert.Equal(t, h.stage.ID, *fetched.StageID)

	entries, err := repo.ListByWork(ctx, h.work.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[1].Migrated)

	require.NoError(t, repo.Delete(ctx, onCutover.ID))
	entries, err = repo.ListByWork(ctx, h.work.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAlertRepo_OrderAndRuleReplace(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteAlertRepo(db)

	base := testutil.Date(2026, 1, 1)
	alerts := []*domain.Alert{
		{ID: "a-info", WorkID: h.work.ID, Message: "i", Severity: domain.SeverityInfo, Type: domain.AlertLiquidity, RuleCode: "R5", Active: true, CreatedAt: base},
		{ID: "a-crit", WorkID: h.work.ID, Message: "c", Severity: domain.SeverityCritical, Type: domain.AlertTime, RuleCode: "R6", Active: true, CreatedAt: base},
		{ID: "a-manual", WorkID: h.work.ID, Message: "m", Severity: domain.SeverityWarning, Type: domain.AlertManual, Active: true, CreatedAt: base.AddDate(0, 0, 1)},
		{ID: "a-old", WorkID: h.work.ID, Message: "w", Severity: domain.SeverityWarning, Type: domain.AlertPlanning, RuleCode: "R1", Active: true, CreatedAt: base},
	}
	for _, a := range alerts {
		require.NoError(t, repo.Create(ctx, a))
	}

	listed, err := repo.ListByWork(ctx, h.work.ID, true)
	require.NoError(t, err)
	ids := make([]string, 0, len(listed))
	for _, a := range listed {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a-crit", "a-manual", "a-old", "a-info"}, ids)

	n, err := repo.DeleteRuleGenerated(ctx, h.work.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	remaining, err := repo.ListByWork(ctx, h.work.ID, false)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "a-manual", remaining[0].ID)

	remaining[0].Active = false
	require.NoError(t, repo.Update(ctx, remaining[0]))
	active, err := repo.ListByWork(ctx, h.work.ID, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

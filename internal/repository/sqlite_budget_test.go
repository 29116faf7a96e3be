package repository

import (
	"context"
	"testing"

	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetRepo_ValidateRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteBudgetRepo(db)

	at := testutil.Date(2026, 1, 15)
	require.NoError(t, h.budget.Validate([]*domain.BudgetLine{h.line}, at))
	require.NoError(t, repo.Update(ctx, h.budget))

	fetched, err := repo.GetByID(ctx, h.budget.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsValidated())
	assert.Equal(t, 1, fetched.VersionNo)
	require.NotNil(t, fetched.ValidatedAt)
	assert.True(t, at.Equal(*fetched.ValidatedAt))
}

func TestBudgetRepo_ListByWorkOldestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteBudgetRepo(db)

	later := testutil.NewTestBudget(h.work.ID)
	later.CreatedAt = h.budget.CreatedAt.AddDate(0, 0, 1)
	require.NoError(t, repo.Create(ctx, later))

	budgets, err := repo.ListByWork(ctx, h.work.ID)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, h.budget.ID, budgets[0].ID)
	assert.Equal(t, later.ID, budgets[1].ID)
}

func TestBudgetRepo_Chapters(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteBudgetRepo(db)

	second := testutil.NewTestChapter(h.budget.ID, "02", 2500)
	second.Sequence = 2
	require.NoError(t, repo.CreateChapter(ctx, second))

	chapters, err := repo.ListChapters(ctx, h.budget.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "01", chapters[0].Code)
	assert.Equal(t, 2500.0, chapters[1].AdvanceAmount)
}

func TestLineRepo_StageAssignment(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteLineRepo(db)

	unassigned := testutil.NewTestLine(h.budget, h.chapter.ID, "01.02", 500,
		testutil.WithCostType(domain.CostAdditional), testutil.WithDistributed(200))
	require.NoError(t, repo.Create(ctx, unassigned))

	fetched, err := repo.GetByID(ctx, unassigned.ID)
	require.NoError(t, err)
	assert.False(t, fetched.HasStage())
	assert.Equal(t, domain.CostAdditional, fetched.CostType)
	assert.Equal(t, 200.0, fetched.Distributed)

	byStage, err := repo.ListByStage(ctx, h.stage.ID)
	require.NoError(t, err)
	require.Len(t, byStage, 1)
	assert.Equal(t, h.line.ID, byStage[0].ID)

	fetched.StageID = &h.stage.ID
	require.NoError(t, repo.Update(ctx, fetched))
	byStage, err = repo.ListByStage(ctx, h.stage.ID)
	require.NoError(t, err)
	assert.Len(t, byStage, 2)

	byBudget, err := repo.ListByBudget(ctx, h.budget.ID)
	require.NoError(t, err)
	assert.Len(t, byBudget, 2)
}

func TestLineRepo_SnapshotRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	h := seedHierarchy(t, db)
	repo := NewSQLiteLineRepo(db)

	d := testutil.Date(2026, 1, 20)
	h.line.ProgressPct = 50
	h.line.ExecutedAmount = 500
	h.line.LastProgressDate = &d
	h.line.LastProgressBy = "user-9"
	h.line.RealTotal = 950
	h.line.Variance = 50
	h.line.ConsumptionPct = 95
	h.line.TrafficLight = domain.LightYellow
	require.NoError(t, repo.Update(ctx, h.line))

	fetched, err := repo.GetByID(ctx, h.line.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, fetched.ProgressPct)
	assert.Equal(t, 500.0, fetched.ExecutedAmount)
	assert.Equal(t, "user-9", fetched.LastProgressBy)
	assert.Equal(t, domain.LightYellow, fetched.TrafficLight)
	require.NotNil(t, fetched.LastProgressDate)
	assert.True(t, d.Equal(*fetched.LastProgressDate))

	fetched.LastProgressDate = nil
	fetched.LastProgressBy = ""
	require.NoError(t, repo.Update(ctx, fetched))
	cleared, err := repo.GetByID(ctx, h.line.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.LastProgressDate)
}

package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/testutil"
	"github.com/stretchr/testify/require"
)

// hierarchy is a minimal persisted work: one stage, one budget, one chapter, one line.
type hierarchy struct {
	work    *domain.Work
	stage   *domain.Stage
	budget  *domain.Budget
	chapter *domain.Chapter
	line    *domain.BudgetLine
}

func seedHierarchy(t *testing.T, database *sql.DB) hierarchy {
	t.Helper()
	ctx := context.Background()

	h := hierarchy{work: testutil.NewTestWork("Casa Lomas")}
	h.stage = testutil.NewTestStage(h.work.ID, "Cimentacion")
	h.budget = testutil.NewTestBudget(h.work.ID)
	h.chapter = testutil.NewTestChapter(h.budget.ID, "01", 0)
	h.line = testutil.NewTestLine(h.budget, h.chapter.ID, "01.01", 1000, testutil.WithStage(h.stage.ID))

	require.NoError(t, NewSQLiteWorkRepo(database).Create(ctx, h.work))
	require.NoError(t, NewSQLiteStageRepo(database).Create(ctx, h.stage))
	budgets := NewSQLiteBudgetRepo(database)
	require.NoError(t, budgets.Create(ctx, h.budget))
	require.NoError(t, budgets.CreateChapter(ctx, h.chapter))
	require.NoError(t, NewSQLiteLineRepo(database).Create(ctx, h.line))
	return h
}

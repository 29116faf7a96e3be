package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/repository"
	"github.com/Moiss/building/internal/testutil"
	"github.com/stretchr/testify/require"
)

var (
	testNow   = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	testToday = testutil.Date(2026, 6, 15)

	director = domain.Actor{UserID: "dir-1", TenantID: "tenant-1", Roles: []domain.Role{domain.RoleDirector}}
	resident = domain.Actor{UserID: "res-1", TenantID: "tenant-1", Roles: []domain.Role{domain.RoleUser}}
	outsider = domain.Actor{UserID: "out-1", TenantID: "tenant-2", Roles: []domain.Role{domain.RoleAdmin}}
)

type testEnv struct {
	db   *sql.DB
	uow  db.UnitOfWork
	deps Deps

	works   *repository.SQLiteWorkRepo
	stages  *repository.SQLiteStageRepo
	budgets *repository.SQLiteBudgetRepo
	lines   *repository.SQLiteLineRepo
	events  *repository.SQLiteProgressEventRepo
	costs   *repository.SQLiteRealCostRepo
	alerts  *repository.SQLiteAlertRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	return &testEnv{
		db:      database,
		uow:     testutil.NewTestUoW(database),
		deps:    Deps{Clock: testutil.FixedClock(testNow)},
		works:   repository.NewSQLiteWorkRepo(database),
		stages:  repository.NewSQLiteStageRepo(database),
		budgets: repository.NewSQLiteBudgetRepo(database),
		lines:   repository.NewSQLiteLineRepo(database),
		events:  repository.NewSQLiteProgressEventRepo(database),
		costs:   repository.NewSQLiteRealCostRepo(database),
		alerts:  repository.NewSQLiteAlertRepo(database),
	}
}

// site is a running work with two stages: S1 holds lines A (1000) and
// B (3000), S2 holds line C (4000). The budget is validated.
type site struct {
	work    *domain.Work
	s1, s2  *domain.Stage
	budget  *domain.Budget
	chapter *domain.Chapter
	a, b, c *domain.BudgetLine
}

func (e *testEnv) seedSite(t *testing.T, workOpts ...testutil.WorkOption) site {
	t.Helper()
	ctx := context.Background()

	w := testutil.NewTestWork("Casa", workOpts...)
	require.NoError(t, e.works.Create(ctx, w))

	s1 := testutil.NewTestStage(w.ID, "Cimentacion", testutil.WithSequence(1))
	s2 := testutil.NewTestStage(w.ID, "Estructura", testutil.WithSequence(2))
	require.NoError(t, e.stages.Create(ctx, s1))
	require.NoError(t, e.stages.Create(ctx, s2))

	b := testutil.NewTestBudget(w.ID, testutil.WithValidated(testNow))
	require.NoError(t, e.budgets.Create(ctx, b))
	ch := testutil.NewTestChapter(b.ID, "01", 0)
	require.NoError(t, e.budgets.CreateChapter(ctx, ch))

	a := testutil.NewTestLine(b, ch.ID, "01.01", 1000, testutil.WithStage(s1.ID))
	bl := testutil.NewTestLine(b, ch.ID, "01.02", 3000, testutil.WithStage(s1.ID))
	c := testutil.NewTestLine(b, ch.ID, "01.03", 4000, testutil.WithStage(s2.ID))
	for _, l := range []*domain.BudgetLine{a, bl, c} {
		require.NoError(t, e.lines.Create(ctx, l))
	}

	return site{work: w, s1: s1, s2: s2, budget: b, chapter: ch, a: a, b: bl, c: c}
}

func (e *testEnv) progress() ProgressService {
	return NewProgressService(e.uow, e.deps)
}

func submitReq(w *domain.Work, l *domain.BudgetLine, delta float64) app.SubmitProgressRequest {
	return app.SubmitProgressRequest{
		WorkID:       w.ID,
		LineID:       l.ID,
		PercentDelta: delta,
		Date:         testToday,
		Actor:        resident,
	}
}

func stageReq(w *domain.Work, st *domain.Stage, delta float64) app.SubmitStageProgressRequest {
	return app.SubmitStageProgressRequest{
		WorkID:       w.ID,
		StageID:      st.ID,
		PercentDelta: delta,
		Date:         testToday,
		Actor:        resident,
	}
}

func (e *testEnv) line(t *testing.T, id string) *domain.BudgetLine {
	t.Helper()
	l, err := e.lines.GetByID(context.Background(), id)
	require.NoError(t, err)
	return l
}

func (e *testEnv) stage(t *testing.T, id string) *domain.Stage {
	t.Helper()
	s, err := e.stages.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (e *testEnv) work(t *testing.T, id string) *domain.Work {
	t.Helper()
	w, err := e.works.GetByID(context.Background(), id)
	require.NoError(t, err)
	return w
}

func (e *testEnv) ruleCodes(t *testing.T, workID string) []string {
	t.Helper()
	list, err := e.alerts.ListByWork(context.Background(), workID, false)
	require.NoError(t, err)
	var out []string
	for _, a := range list {
		if a.IsRuleGenerated() {
			out = append(out, a.RuleCode)
		}
	}
	return out
}

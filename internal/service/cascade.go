package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Moiss/building/internal/alerts"
	"github.com/Moiss/building/internal/db"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/finance"
	"github.com/Moiss/building/internal/pkg/metrics"
	"github.com/Moiss/building/internal/repository"
	"github.com/Moiss/building/internal/rollup"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// txRepos are repositories bound to one transaction.
type txRepos struct {
	works   repository.WorkRepo
	stages  repository.StageRepo
	budgets repository.BudgetRepo
	lines   repository.LineRepo
	events  repository.ProgressEventRepo
	costs   repository.RealCostRepo
	alerts  repository.AlertRepo
}

func reposFor(tx db.DBTX) txRepos {
	return txRepos{
		works:   repository.NewSQLiteWorkRepo(tx),
		stages:  repository.NewSQLiteStageRepo(tx),
		budgets: repository.NewSQLiteBudgetRepo(tx),
		lines:   repository.NewSQLiteLineRepo(tx),
		events:  repository.NewSQLiteProgressEventRepo(tx),
		costs:   repository.NewSQLiteRealCostRepo(tx),
		alerts:  repository.NewSQLiteAlertRepo(tx),
	}
}

// scope names the lines and stages whose ledgers changed. A nil slice
// means all of them; an empty one means none.
type scope struct {
	workID   string
	stageIDs []string
	lineIDs  []string
}

// workState is everything a cascade reads, loaded once per transaction.
type workState struct {
	work    *domain.Work
	stages  []*domain.Stage
	lines   []*domain.BudgetLine
	budgets []*domain.Budget
	entries []*domain.RealCostEntry
	figures finance.WorkFigures

	linesRecomputed  int
	stagesRecomputed int
}

func loadWorkState(ctx context.Context, r txRepos, workID string) (*workState, error) {
	w, err := r.works.GetByID(ctx, workID)
	if err != nil {
		return nil, err
	}
	stages, err := r.stages.ListByWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	lines, err := r.lines.ListByWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	budgets, err := r.budgets.ListByWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	entries, err := r.costs.ListByWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	return &workState{work: w, stages: stages, lines: lines, budgets: budgets, entries: entries}, nil
}

// activeBudget is the latest validated budget, else the latest one.
func (s *workState) activeBudget() *domain.Budget {
	var latest, validated *domain.Budget
	for _, b := range s.budgets {
		latest = b
		if b.IsValidated() {
			validated = b
		}
	}
	if validated != nil {
		return validated
	}
	return latest
}

func (s *workState) validatedLines() []*domain.BudgetLine {
	validated := make(map[string]bool, len(s.budgets))
	for _, b := range s.budgets {
		if b.IsValidated() {
			validated[b.ID] = true
		}
	}
	out := make([]*domain.BudgetLine, 0, len(s.lines))
	for _, l := range s.lines {
		if validated[l.BudgetID] {
			out = append(out, l)
		}
	}
	return out
}

func (s *workState) linesOfStage(stageID string) []*domain.BudgetLine {
	var out []*domain.BudgetLine
	for _, l := range s.lines {
		if l.StageIDOrEmpty() == stageID {
			out = append(out, l)
		}
	}
	return out
}

// cascade re-derives every snapshot of the work after a write, in order:
// line, stage and work progress, then money, then the alert set. It runs
// inside the caller's transaction so a failure anywhere rolls back the write.
func (d Deps) cascade(ctx context.Context, tx db.DBTX, sc scope, now time.Time) (*workState, error) {
	started := time.Now()
	r := reposFor(tx)

	st, err := loadWorkState(ctx, r, sc.workID)
	if err != nil {
		return nil, err
	}
	lineBefore := snapshotLines(st.lines)
	stageBefore := snapshotStages(st.stages)
	workBefore := *st.work

	if err := d.recomputeHierarchy(ctx, r, st, sc); err != nil {
		return nil, err
	}
	d.recomputeFinancials(st)

	for _, l := range st.lines {
		if lineBefore[l.ID] == lineSnapshotOf(l) {
			continue
		}
		if err := r.lines.Update(ctx, l); err != nil {
			return nil, fmt.Errorf("persisting line %s snapshot: %w", l.ID, err)
		}
	}
	for _, s := range st.stages {
		if stageBefore[s.ID] == stageSnapshotOf(s) {
			continue
		}
		if err := r.stages.Update(ctx, s); err != nil {
			return nil, fmt.Errorf("persisting stage %s snapshot: %w", s.ID, err)
		}
	}
	if workSnapshotOf(&workBefore) != workSnapshotOf(st.work) {
		if err := r.works.Update(ctx, st.work); err != nil {
			return nil, fmt.Errorf("persisting work snapshot: %w", err)
		}
	}

	if _, _, err := d.rebuildAlerts(ctx, r, st, now); err != nil {
		return nil, err
	}

	metrics.RecomputeDuration.Observe(time.Since(started).Seconds())
	return st, nil
}

// recomputeHierarchy refreshes physical progress bottom-up in memory.
func (d Deps) recomputeHierarchy(ctx context.Context, r txRepos, st *workState, sc scope) error {
	lineSet := idSet(sc.lineIDs)
	stageSet := idSet(sc.stageIDs)

	for _, l := range st.lines {
		if lineSet != nil && !lineSet[l.ID] {
			continue
		}
		events, err := r.events.ListByLine(ctx, l.ID)
		if err != nil {
			return err
		}
		res := rollup.Line(l.Amount, events)
		l.ProgressPct = res.ProgressPct
		l.ExecutedAmount = res.ExecutedAmount
		l.LastProgressDate = res.LastProgressDate
		l.LastProgressBy = res.LastProgressBy
		st.linesRecomputed++

		if stageSet != nil && l.HasStage() {
			stageSet[*l.StageID] = true
		}
	}

	for _, s := range st.stages {
		if stageSet != nil && !stageSet[s.ID] {
			continue
		}
		in := rollup.StageInput{Lines: st.linesOfStage(s.ID)}
		if len(in.Lines) == 0 {
			manual, err := r.events.ListStageLevel(ctx, s.ID)
			if err != nil {
				return err
			}
			in.ManualEvents = manual
		}
		res := rollup.Stage(in)
		s.ProgressPct = res.ProgressPct
		s.LastProgressDate = res.LastProgressDate
		st.stagesRecomputed++
	}

	st.work.OverallProgress = rollup.Work(st.stages, rollup.StageWeights(st.lines))

	metrics.RecomputeTotal.WithLabelValues("line").Add(float64(st.linesRecomputed))
	metrics.RecomputeTotal.WithLabelValues("stage").Add(float64(st.stagesRecomputed))
	metrics.RecomputeTotal.WithLabelValues("work").Inc()
	return nil
}

// recomputeFinancials refreshes the money snapshots of every line, stage
// and the work under the work's cost policy.
func (d Deps) recomputeFinancials(st *workState) {
	policy := finance.PolicyFor(st.work)
	byLine := finance.Totals(st.entries, policy, finance.GroupByLine)
	byStage := finance.Totals(st.entries, policy, finance.GroupByStage)

	for _, l := range st.lines {
		snap := finance.Evaluate(l.Amount, byLine[l.ID], d.Settings.LineThresholds)
		l.RealTotal = snap.Real
		l.Variance = snap.Variance
		l.ConsumptionPct = snap.ConsumptionPct
		l.TrafficLight = snap.Light
	}

	for _, s := range st.stages {
		var planned float64
		for _, l := range st.linesOfStage(s.ID) {
			planned += l.Amount
		}
		snap := finance.Evaluate(planned, byStage[s.ID], d.Settings.StageThresholds)
		s.BudgetTotal = snap.Planned
		s.ExecutedTotal = snap.Real
		s.Variance = snap.Variance
		s.ConsumptionPct = snap.ConsumptionPct
		s.TrafficLight = snap.Light
	}

	st.figures = finance.Figures(st.validatedLines(), finance.Sum(st.entries, policy))
	st.work.FinancialProgress = st.figures.FinancialProgress
	st.work.ConsistencyWarning = st.work.FinancialProgress > st.work.OverallProgress
}

// rebuildAlerts replaces the rule-generated alerts of the work with the
// current findings. Manual alerts are untouched.
func (d Deps) rebuildAlerts(ctx context.Context, r txRepos, st *workState, now time.Time) (int64, []*domain.Alert, error) {
	snap := alerts.Snapshot{
		Work:    st.work,
		Stages:  st.stages,
		Figures: st.figures,
		Today:   now,
	}
	if active := st.activeBudget(); active != nil {
		snap.ActiveBudget = active
		chapters, err := r.budgets.ListChapters(ctx, active.ID)
		if err != nil {
			return 0, nil, err
		}
		snap.Chapters = chapters
	}

	found := alerts.Evaluate(snap, d.Settings.Alerts)

	removed, err := r.alerts.DeleteRuleGenerated(ctx, st.work.ID)
	if err != nil {
		return 0, nil, fmt.Errorf("clearing rule alerts: %w", err)
	}

	created := make([]*domain.Alert, 0, len(found))
	codes := make([]string, 0, len(found))
	for i := range found {
		a := found[i]
		a.ID = uuid.New().String()
		a.CreatedAt = now
		if err := r.alerts.Create(ctx, &a); err != nil {
			return 0, nil, fmt.Errorf("creating alert %s: %w", a.RuleCode, err)
		}
		created = append(created, &a)
		codes = append(codes, a.RuleCode)
		metrics.AlertsGeneratedTotal.WithLabelValues(alerts.FamilyOf(a.RuleCode)).Inc()
	}
	metrics.AlertRebuildsTotal.Inc()
	d.Logger.Debug("alerts rebuilt",
		zap.String("work_id", st.work.ID),
		zap.Int64("removed", removed),
		zap.Strings("codes", codes),
	)
	return removed, created, nil
}

func idSet(ids []string) map[string]bool {
	if ids == nil {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Snapshot comparisons let the cascade skip rows whose derived fields did
// not move.

type lineSnapshot struct {
	progress, executed, real, variance, consumption float64
	lastDate                                        string
	lastBy                                          string
	light                                           domain.TrafficLight
}

func lineSnapshotOf(l *domain.BudgetLine) lineSnapshot {
	return lineSnapshot{
		progress: l.ProgressPct, executed: l.ExecutedAmount,
		real: l.RealTotal, variance: l.Variance, consumption: l.ConsumptionPct,
		lastDate: dateKey(l.LastProgressDate), lastBy: l.LastProgressBy,
		light: l.TrafficLight,
	}
}

func snapshotLines(lines []*domain.BudgetLine) map[string]lineSnapshot {
	out := make(map[string]lineSnapshot, len(lines))
	for _, l := range lines {
		out[l.ID] = lineSnapshotOf(l)
	}
	return out
}

type stageSnapshot struct {
	progress, budget, executed, variance, consumption float64
	lastDate                                          string
	light                                             domain.TrafficLight
}

func stageSnapshotOf(s *domain.Stage) stageSnapshot {
	return stageSnapshot{
		progress: s.ProgressPct, budget: s.BudgetTotal, executed: s.ExecutedTotal,
		variance: s.Variance, consumption: s.ConsumptionPct,
		lastDate: dateKey(s.LastProgressDate), light: s.TrafficLight,
	}
}

func snapshotStages(stages []*domain.Stage) map[string]stageSnapshot {
	out := make(map[string]stageSnapshot, len(stages))
	for _, s := range stages {
		out[s.ID] = stageSnapshotOf(s)
	}
	return out
}

type workSnapshot struct {
	overall, financial float64
	warning            bool
}

func workSnapshotOf(w *domain.Work) workSnapshot {
	return workSnapshot{overall: w.OverallProgress, financial: w.FinancialProgress, warning: w.ConsistencyWarning}
}

func dateKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// Package rollup derives the physical-progress snapshots of the
// Line → Stage → Work hierarchy. It never reads storage: callers pass the
// current child state and persist the results, always lines first, then
// stages, then the work.
package rollup

import (
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/ledger"
)

// Weighted is one child contribution to a parent average.
type Weighted struct {
	Weight   float64
	Progress float64
}

// WeightedMean averages progress by weight. When every weight is zero it
// falls back to the simple mean; an empty input yields 0.
func WeightedMean(items []Weighted) float64 {
	if len(items) == 0 {
		return 0
	}
	var totalWeight, weighted, plain float64
	for _, it := range items {
		totalWeight += it.Weight
		weighted += it.Weight * it.Progress
		plain += it.Progress
	}
	if totalWeight > 0 {
		return weighted / totalWeight
	}
	return plain / float64(len(items))
}

// Clamp bounds a percentage to [0,100].
func Clamp(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

type LineResult struct {
	ProgressPct      float64
	ExecutedAmount   float64
	LastProgressDate *time.Time
	LastProgressBy   string
}

// Line derives a line snapshot from its full ledger. Last-progress fields are
// cleared when no confirmed event remains.
func Line(amount float64, events []*domain.ProgressEvent) LineResult {
	progress := Clamp(ledger.Accumulated(events))
	res := LineResult{
		ProgressPct:    progress,
		ExecutedAmount: amount * progress / 100,
	}
	if latest := ledger.Latest(events); latest != nil {
		d := domain.DateOnly(latest.Date)
		res.LastProgressDate = &d
		res.LastProgressBy = latest.AuthorID
	}
	return res
}

type StageInput struct {
	// Lines currently assigned to the stage, with fresh snapshots.
	Lines []*domain.BudgetLine
	// ManualEvents is the legacy stage-level ledger, used only without lines.
	ManualEvents []*domain.ProgressEvent
}

type StageResult struct {
	ProgressPct      float64
	LastProgressDate *time.Time
}

// Stage averages its lines by planned amount. A stage never broken into
// lines reads its own manual ledger instead.
func Stage(in StageInput) StageResult {
	if len(in.Lines) == 0 {
		res := StageResult{ProgressPct: Clamp(ledger.Accumulated(in.ManualEvents))}
		if latest := ledger.Latest(in.ManualEvents); latest != nil {
			d := domain.DateOnly(latest.Date)
			res.LastProgressDate = &d
		}
		return res
	}

	items := make([]Weighted, 0, len(in.Lines))
	var last *time.Time
	for _, l := range in.Lines {
		items = append(items, Weighted{Weight: l.Amount, Progress: l.ProgressPct})
		if l.LastProgressDate != nil && (last == nil || l.LastProgressDate.After(*last)) {
			d := *l.LastProgressDate
			last = &d
		}
	}
	return StageResult{ProgressPct: WeightedMean(items), LastProgressDate: last}
}

// StageWeights sums planned line amounts per assigned stage.
func StageWeights(lines []*domain.BudgetLine) map[string]float64 {
	weights := make(map[string]float64)
	for _, l := range lines {
		if l.HasStage() {
			weights[*l.StageID] += l.Amount
		}
	}
	return weights
}

// Work averages stage snapshots weighted by each stage's line amounts.
// A stage without lines weighs zero unless every stage does.
func Work(stages []*domain.Stage, weights map[string]float64) float64 {
	items := make([]Weighted, 0, len(stages))
	for _, s := range stages {
		items = append(items, Weighted{Weight: weights[s.ID], Progress: s.ProgressPct})
	}
	return WeightedMean(items)
}

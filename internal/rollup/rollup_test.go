package rollup

import (
	"testing"
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func confirmed(seq int, date time.Time, delta float64, author string) *domain.ProgressEvent {
	return &domain.ProgressEvent{Seq: seq, Date: date, PercentDelta: delta, AuthorID: author, State: domain.EventConfirmed}
}

func TestWeightedMean(t *testing.T) {
	tests := []struct {
		name  string
		items []Weighted
		want  float64
	}{
		{"empty", nil, 0},
		{"weighted", []Weighted{{1000, 50}, {3000, 0}}, 12.5},
		{"zero weights fall back to simple mean", []Weighted{{0, 40}, {0, 80}}, 60},
		{"zero-weight child excluded when others weigh", []Weighted{{0, 100}, {500, 20}}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WeightedMean(tt.items), 1e-9)
		})
	}
}

func TestLine(t *testing.T) {
	d1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	events := []*domain.ProgressEvent{
		confirmed(1, d1, 30, "ana"),
		confirmed(2, d2, 20, "luis"),
		{Seq: 3, Date: d2, PercentDelta: 40, AuthorID: "eva", State: domain.EventCancelled},
	}

	res := Line(1000, events)
	assert.InDelta(t, 50.0, res.ProgressPct, 1e-9)
	assert.InDelta(t, 500.0, res.ExecutedAmount, 1e-9)
	require.NotNil(t, res.LastProgressDate)
	assert.True(t, res.LastProgressDate.Equal(d2))
	assert.Equal(t, "luis", res.LastProgressBy)
}

func TestLine_ClearsLastProgressWithoutConfirmedEvents(t *testing.T) {
	d := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	res := Line(800, []*domain.ProgressEvent{
		{Seq: 1, Date: d, PercentDelta: 30, AuthorID: "ana", State: domain.EventCancelled},
	})
	assert.Zero(t, res.ProgressPct)
	assert.Zero(t, res.ExecutedAmount)
	assert.Nil(t, res.LastProgressDate)
	assert.Empty(t, res.LastProgressBy)
}

func TestLine_ClampsCorruptLedger(t *testing.T) {
	d := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	res := Line(100, []*domain.ProgressEvent{confirmed(1, d, 80, "a"), confirmed(2, d, 80, "a")})
	assert.Equal(t, 100.0, res.ProgressPct)
	assert.Equal(t, 100.0, res.ExecutedAmount)
}

func TestStage_WeightedByLineAmount(t *testing.T) {
	d1 := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	res := Stage(StageInput{Lines: []*domain.BudgetLine{
		{Amount: 1000, ProgressPct: 50, LastProgressDate: &d1},
		{Amount: 3000, ProgressPct: 0, LastProgressDate: &d2},
	}})

	assert.InDelta(t, 12.5, res.ProgressPct, 1e-9)
	require.NotNil(t, res.LastProgressDate)
	assert.True(t, res.LastProgressDate.Equal(d2))
}

func TestStage_ZeroWeightFallback(t *testing.T) {
	res := Stage(StageInput{Lines: []*domain.BudgetLine{
		{Amount: 0, ProgressPct: 30},
		{Amount: 0, ProgressPct: 70},
	}})
	assert.InDelta(t, 50.0, res.ProgressPct, 1e-9)
	assert.Nil(t, res.LastProgressDate)
}

func TestStage_NoChildrenUsesManualLedger(t *testing.T) {
	d := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	res := Stage(StageInput{ManualEvents: []*domain.ProgressEvent{
		confirmed(1, d, 25, "dir"),
		confirmed(2, d, 10, "dir"),
		{Seq: 3, Date: d, PercentDelta: 50, State: domain.EventCancelled},
	}})
	assert.InDelta(t, 35.0, res.ProgressPct, 1e-9)
	require.NotNil(t, res.LastProgressDate)
	assert.True(t, res.LastProgressDate.Equal(d))
}

func TestStage_LinesWinOverManualLedger(t *testing.T) {
	d := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	res := Stage(StageInput{
		Lines:        []*domain.BudgetLine{{Amount: 10, ProgressPct: 5}},
		ManualEvents: []*domain.ProgressEvent{confirmed(1, d, 90, "dir")},
	})
	assert.InDelta(t, 5.0, res.ProgressPct, 1e-9)
}

func TestStageWeights(t *testing.T) {
	weights := StageWeights([]*domain.BudgetLine{
		{StageID: ptr("s1"), Amount: 1000},
		{StageID: ptr("s1"), Amount: 3000},
		{StageID: ptr("s2"), Amount: 4000},
		{Amount: 999},
	})
	assert.Equal(t, map[string]float64{"s1": 4000, "s2": 4000}, weights)
}

func TestWork(t *testing.T) {
	stages := []*domain.Stage{
		{ID: "s1", ProgressPct: 12.5},
		{ID: "s2", ProgressPct: 0},
	}

	assert.InDelta(t, 6.25, Work(stages, map[string]float64{"s1": 4000, "s2": 4000}), 1e-9)
	assert.InDelta(t, 6.25, Work(stages, nil), 1e-9, "no weights falls back to simple mean")
	assert.Zero(t, Work(nil, nil))
}

func TestWork_ManualStageWithoutLinesWeighsZero(t *testing.T) {
	stages := []*domain.Stage{
		{ID: "lined", ProgressPct: 40},
		{ID: "manual", ProgressPct: 100},
	}
	assert.InDelta(t, 40.0, Work(stages, map[string]float64{"lined": 2000}), 1e-9)
}

func TestRecompute_Idempotent(t *testing.T) {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	events := []*domain.ProgressEvent{confirmed(1, d, 33.3, "a")}

	first := Line(900, events)
	second := Line(900, events)
	assert.Equal(t, first, second)
}

package finance

import (
	"fmt"

	"github.com/Moiss/building/internal/domain"
)

type GroupBy string

const (
	GroupByLine  GroupBy = "line"
	GroupByStage GroupBy = "stage"
)

// ParseGroupBy accepts "line" or "stage".
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case GroupByLine, GroupByStage:
		return GroupBy(s), nil
	default:
		return "", fmt.Errorf("invalid grouping %q (expected line or stage)", s)
	}
}

// Totals sums counted entries per line or stage id. Entries without the
// grouping reference land under the empty key.
func Totals(entries []*domain.RealCostEntry, policy CostPolicy, groupBy GroupBy) map[string]float64 {
	totals := make(map[string]float64)
	for _, e := range entries {
		if !policy.Counts(e) {
			continue
		}
		var key string
		switch groupBy {
		case GroupByStage:
			if e.StageID != nil {
				key = *e.StageID
			}
		default:
			if e.LineID != nil {
				key = *e.LineID
			}
		}
		totals[key] += e.Amount
	}
	return totals
}

// Sum adds every counted entry.
func Sum(entries []*domain.RealCostEntry, policy CostPolicy) float64 {
	var sum float64
	for _, e := range entries {
		if policy.Counts(e) {
			sum += e.Amount
		}
	}
	return sum
}

// WorkFigures are the work-level money KPIs.
type WorkFigures struct {
	BudgetTotal       float64
	Committed         float64
	Paid              float64
	Available         float64
	FinancialProgress float64
	ByCostType        map[domain.CostType]float64
}

// Figures derives work KPIs from the lines of validated budgets and the
// policy-filtered paid total.
func Figures(validatedLines []*domain.BudgetLine, paid float64) WorkFigures {
	f := WorkFigures{Paid: paid, ByCostType: make(map[domain.CostType]float64)}
	for _, l := range validatedLines {
		f.BudgetTotal += l.Amount
		f.Committed += l.Distributed
		f.ByCostType[l.CostType] += l.Amount
	}
	if avail := f.BudgetTotal - f.Committed - f.Paid; avail > 0 {
		f.Available = avail
	}
	if f.BudgetTotal > 0 {
		f.FinancialProgress = (f.Paid + f.Committed) / f.BudgetTotal * 100
	}
	return f
}

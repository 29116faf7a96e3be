package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Moiss/building/internal/app"
	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/finance"
)

// FormatFinanceSummary renders the work-level money figures.
func FormatFinanceSummary(sum *app.FinanceSummary) string {
	var b strings.Builder
	b.WriteString(Field("budget", FormatMoney(sum.BudgetTotal)))
	b.WriteString(Field("committed", FormatMoney(sum.Committed)))
	b.WriteString(Field("paid", FormatMoney(sum.Paid)))
	b.WriteString(Field("available", FormatMoney(sum.Available)))
	b.WriteString(Field("progress", FormatPct(sum.FinancialProgress)))

	types := make([]string, 0, len(sum.ByCostType))
	for t := range sum.ByCostType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		b.WriteString(Field(t, FormatMoney(sum.ByCostType[domain.CostType(t)])))
	}
	return b.String()
}

// FormatTotals renders real totals keyed by line or stage id. names maps
// ids to display labels; the empty key collects unattributed costs.
func FormatTotals(totals map[string]float64, names map[string]string, groupBy finance.GroupBy) string {
	if len(totals) == 0 {
		return Dim("No counted costs.") + "\n"
	}
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		// Unattributed last.
		if keys[i] == "" || keys[j] == "" {
			return keys[j] == ""
		}
		return names[keys[i]] < names[keys[j]]
	})

	var grand float64
	rows := make([][]string, 0, len(keys)+1)
	for _, k := range keys {
		label := names[k]
		switch {
		case k == "":
			label = Dim("(unattributed)")
		case label == "":
			label = TruncID(k)
		}
		rows = append(rows, []string{label, FormatMoney(totals[k])})
		grand += totals[k]
	}
	rows = append(rows, []string{Bold("TOTAL"), Bold(FormatMoney(grand))})
	return RenderTableAligned([]string{strings.ToUpper(string(groupBy)), "REAL"}, rows, []int{1})
}

// FormatClassification renders a single planned/real evaluation.
func FormatClassification(snap finance.Snapshot) string {
	var b strings.Builder
	b.WriteString(Field("planned", FormatMoney(snap.Planned)))
	b.WriteString(Field("real", FormatMoney(snap.Real)))
	b.WriteString(Field("variance", FormatMoneyStyled(snap.Variance)))
	b.WriteString(Field("use", FormatPct(snap.ConsumptionPct)))
	b.WriteString(Field("light", LightIndicator(snap.Light)))
	return b.String()
}

// FormatCostEntry confirms a recorded expenditure.
func FormatCostEntry(e *domain.RealCostEntry) string {
	target := "work"
	if e.LineID != nil {
		target = "line " + TruncID(*e.LineID)
	} else if e.StageID != nil {
		target = "stage " + TruncID(*e.StageID)
	}
	return fmt.Sprintf("%s %s on %s dated %s (%s) %s\n",
		StyleGreen.Render("Recorded"), Bold(FormatMoney(e.Amount)), target,
		e.Date.Format("2006-01-02"), e.Source, Dim(e.ID))
}

// Package alerts evaluates the fixed rule battery over a work's fresh
// snapshots. Evaluation is pure; persisting the replace-on-rebuild cycle is
// the service layer's job.
package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/Moiss/building/internal/finance"
)

// Rule code prefixes. Stage-scoped rules append the stage id.
const (
	CodeBudgetNotValidated      = "RULE_01_BUDGET_NOT_VALIDATED"
	CodeFinancialExceedsPhysics = "RULE_02_FINANCIAL_EXCEEDS_PHYSICAL"
	CodeNoProgressPrefix        = "RULE_03_NO_PROGRESS_"
	CodeNoStartProgressPrefix   = "RULE_03_NO_START_PROGRESS_"
	CodeStageDelayedPrefix      = "RULE_04_STAGE_DELAYED_"
	CodeAdvancesExceedClient    = "RULE_05_ADVANCES_EXCEED_CLIENT"
	CodeLegacyBudgetExceeded    = "LEGACY_BUDGET_EXCEEDED"
	CodeLegacyStagesToApprove   = "LEGACY_STAGES_TO_APPROVE"
	CodeLegacyOverdueStages     = "LEGACY_OVERDUE_STAGES"
)

// Settings are the fallbacks used when a work carries no value of its own.
type Settings struct {
	FinancialTolerance float64
	StaleDays          int
	DelayPoints        float64
}

var DefaultSettings = Settings{FinancialTolerance: 5, StaleDays: 7, DelayPoints: 10}

// Snapshot is everything the battery reads, loaded after the rollups ran.
type Snapshot struct {
	Work *domain.Work
	// ActiveBudget is the latest validated budget, else the latest one; nil when none exist.
	ActiveBudget *domain.Budget
	Chapters     []*domain.Chapter
	Stages       []*domain.Stage
	Figures      finance.WorkFigures
	Today        time.Time
}

// Rule produces zero or more alerts from a snapshot.
type Rule func(s Snapshot, cfg Settings) []domain.Alert

// Battery lists the rules in evaluation order.
var Battery = []Rule{
	budgetNotValidated,
	financialExceedsPhysical,
	staleStages,
	delayedStages,
	advancesExceedClient,
	legacyBudgetExceeded,
	legacyStagesToApprove,
	legacyOverdueStages,
}

// Evaluate runs the battery and returns the alerts that currently hold,
// with unique rule codes, in rule order.
func Evaluate(s Snapshot, cfg Settings) []domain.Alert {
	var out []domain.Alert
	seen := make(map[string]bool)
	for _, rule := range Battery {
		for _, a := range rule(s, cfg) {
			if seen[a.RuleCode] {
				continue
			}
			seen[a.RuleCode] = true
			a.WorkID = s.Work.ID
			a.Active = true
			out = append(out, a)
		}
	}
	return out
}

func alert(code string, sev domain.Severity, typ domain.AlertType, msg string) domain.Alert {
	return domain.Alert{RuleCode: code, Severity: sev, Type: typ, Message: msg}
}

func budgetNotValidated(s Snapshot, _ Settings) []domain.Alert {
	if s.ActiveBudget == nil || s.ActiveBudget.IsValidated() {
		return nil
	}
	return []domain.Alert{alert(CodeBudgetNotValidated, domain.SeverityWarning, domain.AlertPlanning,
		"The budget has not been validated yet.")}
}

func financialExceedsPhysical(s Snapshot, cfg Settings) []domain.Alert {
	tolerance := s.Work.ToleranceOr(cfg.FinancialTolerance)
	if s.Work.FinancialProgress <= s.Work.OverallProgress+tolerance {
		return nil
	}
	return []domain.Alert{alert(CodeFinancialExceedsPhysics, domain.SeverityCritical, domain.AlertFinancial,
		fmt.Sprintf("Spending is ahead of physical progress (financial %.1f%% vs physical %.1f%%).",
			s.Work.FinancialProgress, s.Work.OverallProgress))}
}

func staleStages(s Snapshot, cfg Settings) []domain.Alert {
	days := s.Work.StaleDaysOr(cfg.StaleDays)
	threshold := domain.DateOnly(s.Today).AddDate(0, 0, -days)

	var out []domain.Alert
	for _, st := range s.Stages {
		if st.State != domain.StageInProgress {
			continue
		}
		if st.LastProgressDate != nil {
			if domain.DateOnly(*st.LastProgressDate).Before(threshold) {
				out = append(out, alert(CodeNoProgressPrefix+st.ID, domain.SeverityWarning, domain.AlertOperational,
					fmt.Sprintf("Stage %q has no progress recorded in the last %d days.", st.Name, days)))
			}
			continue
		}

		ref := st.UpdatedAt
		if st.StartDate != nil {
			ref = *st.StartDate
		}
		if ref.IsZero() {
			continue
		}
		if domain.DateOnly(ref).Before(threshold) {
			out = append(out, alert(CodeNoStartProgressPrefix+st.ID, domain.SeverityWarning, domain.AlertOperational,
				fmt.Sprintf("Stage %q started more than %d days ago and has no progress yet.", st.Name, days)))
		}
	}
	return out
}

func delayedStages(s Snapshot, cfg Settings) []domain.Alert {
	var out []domain.Alert
	for _, st := range s.Stages {
		if st.State != domain.StageInProgress {
			continue
		}
		expected := ExpectedProgress(st.StartDate, st.Deadline, s.Today)
		if expected > 0 && st.ProgressPct < expected-cfg.DelayPoints {
			out = append(out, alert(CodeStageDelayedPrefix+st.ID, domain.SeverityWarning, domain.AlertOperational,
				fmt.Sprintf("Stage %q is behind plan (actual %.1f%% vs expected %.1f%%).",
					st.Name, st.ProgressPct, expected)))
		}
	}
	return out
}

func advancesExceedClient(s Snapshot, _ Settings) []domain.Alert {
	if s.ActiveBudget == nil || s.Work.ClientAdvancePlanned <= 0 {
		return nil
	}
	var total float64
	for _, c := range s.Chapters {
		total += c.AdvanceAmount
	}
	if total <= s.Work.ClientAdvancePlanned {
		return nil
	}
	return []domain.Alert{alert(CodeAdvancesExceedClient, domain.SeverityInfo, domain.AlertLiquidity,
		fmt.Sprintf("Planned advances (%.2f) exceed the client advance (%.2f).", total, s.Work.ClientAdvancePlanned))}
}

func legacyBudgetExceeded(s Snapshot, _ Settings) []domain.Alert {
	f := s.Figures
	if f.BudgetTotal <= 0 || f.Committed+f.Paid <= f.BudgetTotal {
		return nil
	}
	return []domain.Alert{alert(CodeLegacyBudgetExceeded, domain.SeverityCritical, domain.AlertBudget,
		"Committed plus paid exceeds the budget total.")}
}

func legacyStagesToApprove(s Snapshot, _ Settings) []domain.Alert {
	n := 0
	for _, st := range s.Stages {
		if st.State == domain.StageToApprove {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return []domain.Alert{alert(CodeLegacyStagesToApprove, domain.SeverityWarning, domain.AlertApproval,
		fmt.Sprintf("Stages awaiting approval: %d", n))}
}

func legacyOverdueStages(s Snapshot, _ Settings) []domain.Alert {
	n := 0
	for _, st := range s.Stages {
		if st.IsOverdue(s.Today) {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return []domain.Alert{alert(CodeLegacyOverdueStages, domain.SeverityCritical, domain.AlertTime,
		fmt.Sprintf("Overdue stages: %d", n))}
}

// FamilyOf strips the stage id from stage-scoped rule codes.
func FamilyOf(code string) string {
	for _, prefix := range []string{CodeNoProgressPrefix, CodeNoStartProgressPrefix, CodeStageDelayedPrefix} {
		if strings.HasPrefix(code, prefix) {
			return strings.TrimSuffix(prefix, "_")
		}
	}
	return code
}

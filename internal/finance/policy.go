// Package finance aggregates real cost against plan and classifies
// consumption. Which cost records count is decided once per work by a
// CostPolicy strategy.
package finance

import (
	"fmt"
	"time"

	"github.com/Moiss/building/internal/domain"
	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

// CostPolicy decides which real-cost entries count toward totals.
type CostPolicy interface {
	Source() domain.CostSource
	// Counts reports whether an entry contributes to totals.
	Counts(e *domain.RealCostEntry) bool
	// Accepts rejects entries that must not be recorded under this policy.
	Accepts(e *domain.RealCostEntry) error
}

// InternalPolicy counts every entry not yet migrated to accounting.
type InternalPolicy struct{}

func (InternalPolicy) Source() domain.CostSource { return domain.CostSourceInternal }

func (InternalPolicy) Counts(e *domain.RealCostEntry) bool { return !e.Migrated }

func (InternalPolicy) Accepts(*domain.RealCostEntry) error { return nil }

// AccountingPolicy counts non-migrated entries dated strictly before the
// cutover. Later costs arrive through the external accounting ledger.
// A zero Cutover counts nothing.
type AccountingPolicy struct {
	Cutover time.Time
}

func (AccountingPolicy) Source() domain.CostSource { return domain.CostSourceAccounting }

func (p AccountingPolicy) Counts(e *domain.RealCostEntry) bool {
	if e.Migrated || p.Cutover.IsZero() {
		return false
	}
	return domain.DateOnly(e.Date).Before(domain.DateOnly(p.Cutover))
}

func (p AccountingPolicy) Accepts(e *domain.RealCostEntry) error {
	if e.Source != domain.CostSourceInternal || p.Cutover.IsZero() {
		return nil
	}
	if !domain.DateOnly(e.Date).Before(domain.DateOnly(p.Cutover)) {
		return apperrors.Consistency(apperrors.CodeCostSourceBlocked,
			fmt.Sprintf("internal costs dated on or after the cutover %s must be recorded in accounting",
				p.Cutover.Format("2006-01-02"))).
			WithParams(map[string]interface{}{"cutover": p.Cutover.Format("2006-01-02")})
	}
	return nil
}

// PolicyFor selects the strategy configured on the work.
func PolicyFor(w *domain.Work) CostPolicy {
	if w.CostSource == domain.CostSourceAccounting {
		p := AccountingPolicy{}
		if w.CutoverDate != nil {
			p.Cutover = *w.CutoverDate
		}
		return p
	}
	return InternalPolicy{}
}

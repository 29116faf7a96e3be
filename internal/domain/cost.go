package domain

import (
	"time"

	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

// RealCostEntry is a recorded expenditure. It is immutable once migrated.
type RealCostEntry struct {
	ID          string
	WorkID      string
	StageID     *string
	LineID      *string
	Date        time.Time
	Amount      float64
	Description string
	Source      CostSource
	Migrated    bool
	CreatedAt   time.Time
}

// Check rejects entries that can never be valid regardless of work policy.
func (c *RealCostEntry) Check() error {
	if c.Amount < 0 {
		return apperrors.Consistency(apperrors.CodeNegativeAmount, "real cost amount cannot be negative").
			WithParams(map[string]interface{}{"amount": c.Amount})
	}
	return nil
}

// EnsureMutable rejects changes to an entry already migrated to accounting.
func (c *RealCostEntry) EnsureMutable() error {
	if c.Migrated {
		return apperrors.Validation(apperrors.CodeImmutableField, "cost entry was migrated to accounting and cannot change")
	}
	return nil
}

package domain

import (
	"fmt"
	"time"

	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

type Budget struct {
	ID          string
	WorkID      string
	Name        string
	State       BudgetState
	VersionNo   int
	ValidatedAt *time.Time
	CreatedAt   time.Time
}

// Chapter groups lines inside a budget and carries the planned advance.
type Chapter struct {
	ID            string
	BudgetID      string
	Code          string
	Name          string
	Sequence      int
	AdvanceAmount float64
}

// BudgetLine is the smallest planned-cost item.
type BudgetLine struct {
	ID        string
	WorkID    string
	BudgetID  string
	ChapterID string
	StageID   *string
	Code      string
	Name      string
	CostType  CostType
	Amount    float64
	// Distributed is the part of Amount already scheduled into execution periods.
	Distributed float64

	// Physical snapshot
	ProgressPct      float64
	ExecutedAmount   float64
	LastProgressDate *time.Time
	LastProgressBy   string

	// Financial snapshot
	RealTotal      float64
	Variance       float64
	ConsumptionPct float64
	TrafficLight   TrafficLight

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidated reports whether the budget's planned amounts are frozen.
func (b *Budget) IsValidated() bool {
	return b.State == BudgetValidated
}

// Validate freezes the budget. Every line must carry a positive amount.
func (b *Budget) Validate(lines []*BudgetLine, now time.Time) error {
	if b.IsValidated() {
		return apperrors.Validation(apperrors.CodeInvalidState, "budget is already validated")
	}
	if len(lines) == 0 {
		return apperrors.Validation(apperrors.CodeValidationFailed, "cannot validate a budget without lines")
	}
	for _, l := range lines {
		if l.Amount <= 0 {
			return apperrors.Validation(apperrors.CodeValidationFailed,
				fmt.Sprintf("line %q must have an amount greater than zero", l.Name)).
				WithParams(map[string]interface{}{"line_id": l.ID})
		}
	}
	b.State = BudgetValidated
	b.VersionNo++
	b.ValidatedAt = &now
	return nil
}

// Reopen returns a validated budget to draft.
func (b *Budget) Reopen() error {
	if !b.IsValidated() {
		return apperrors.Validation(apperrors.CodeInvalidState, "only a validated budget can be reopened")
	}
	b.State = BudgetDraft
	b.ValidatedAt = nil
	return nil
}

// HasStage reports whether the line is assigned to a stage.
func (l *BudgetLine) HasStage() bool {
	return l.StageID != nil && *l.StageID != ""
}

// StageIDOrEmpty returns the assigned stage id or "".
func (l *BudgetLine) StageIDOrEmpty() string {
	if l.StageID == nil {
		return ""
	}
	return *l.StageID
}

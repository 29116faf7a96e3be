package app

import (
	"time"

	"github.com/Moiss/building/internal/domain"
)

// SubmitProgressRequest appends a delta to a budget line's ledger.
// StageID may be left empty to use the line's assigned stage; when set it
// must match that stage.
type SubmitProgressRequest struct {
	WorkID       string       `validate:"required"`
	StageID      string       `validate:"omitempty"`
	LineID       string       `validate:"required"`
	PercentDelta float64      `validate:"gt=0,lte=100"`
	Date         time.Time    `validate:"required"`
	Note         string       `validate:"max=500"`
	Actor        domain.Actor `validate:"-"`
	// Now overrides the service clock, mainly for tests.
	Now *time.Time `validate:"-"`
}

// SubmitStageProgressRequest appends to the manual ledger of a stage that
// has no budget lines.
type SubmitStageProgressRequest struct {
	WorkID       string       `validate:"required"`
	StageID      string       `validate:"required"`
	PercentDelta float64      `validate:"gt=0,lte=100"`
	Date         time.Time    `validate:"required"`
	Note         string       `validate:"max=500"`
	Actor        domain.Actor `validate:"-"`
	Now          *time.Time   `validate:"-"`
}

// RecordCostRequest registers a real expenditure. Amount is deliberately not
// tag-validated: a negative amount is a consistency error, not a form error.
type RecordCostRequest struct {
	WorkID      string            `validate:"required"`
	StageID     string            `validate:"omitempty"`
	LineID      string            `validate:"omitempty"`
	Date        time.Time         `validate:"required"`
	Amount      float64           `validate:"-"`
	Description string            `validate:"max=500"`
	Source      domain.CostSource `validate:"omitempty,oneof=internal accounting"`
	Actor       domain.Actor      `validate:"-"`
}

// ChangeSourceRequest switches which real-cost records count for a work.
type ChangeSourceRequest struct {
	WorkID       string            `validate:"required"`
	Source       domain.CostSource `validate:"required,oneof=internal accounting"`
	Cutover      *time.Time        `validate:"required_if=Source accounting"`
	MarkMigrated bool
	Actor        domain.Actor `validate:"-"`
}

// CreateAlertRequest adds a manual alert that rebuilds never touch.
type CreateAlertRequest struct {
	WorkID   string          `validate:"required"`
	Message  string          `validate:"required,max=500"`
	Severity domain.Severity `validate:"required,oneof=info warning critical"`
}

// StatusRequest selects the work shown on the dashboard.
type StatusRequest struct {
	WorkID     string `validate:"required"`
	ActiveOnly bool   `validate:"-"`
}

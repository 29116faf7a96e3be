package domain

import (
	"time"

	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

// Stage is a phase or work front grouping budget lines.
type Stage struct {
	ID       string
	WorkID   string
	Name     string
	Sequence int
	State    StageState

	StartDate *time.Time
	Deadline  *time.Time

	// Physical snapshot
	ProgressPct      float64
	LastProgressDate *time.Time

	// Financial snapshot
	BudgetTotal    float64
	ExecutedTotal  float64
	Variance       float64
	ConsumptionPct float64
	TrafficLight   TrafficLight

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOverdue reports whether the deadline has passed without the stage being done.
func (s *Stage) IsOverdue(today time.Time) bool {
	if s.Deadline == nil || s.State == StageDone {
		return false
	}
	return DateOnly(*s.Deadline).Before(DateOnly(today))
}

// Close marks the stage done.
func (s *Stage) Close(now time.Time) error {
	if s.State == StageDone {
		return apperrors.Validation(apperrors.CodeInvalidState, "stage is already closed")
	}
	s.State = StageDone
	s.UpdatedAt = now
	return nil
}

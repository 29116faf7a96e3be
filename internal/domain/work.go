package domain

import (
	"fmt"
	"regexp"
	"time"

	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

var shortIDPattern = regexp.MustCompile(`^[A-Z]{3,6}[0-9]{2,4}$`)

// Work is the root aggregate: a construction job whose stages, budgets,
// ledger and alerts are all owned by it.
type Work struct {
	ID       string
	TenantID string
	ShortID  string
	Name     string
	State    WorkState

	CostSource  CostSource
	CutoverDate *time.Time

	// Zero means "use the configured default".
	FinancialTolerance float64
	StaleDays          int

	ClientAdvancePlanned float64

	// Snapshot
	OverallProgress    float64
	FinancialProgress  float64
	ConsistencyWarning bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateShortID checks that ShortID is non-empty and matches the required
// format: 3-6 uppercase letters followed by 2-4 digits (e.g. OBRA01).
func (w *Work) ValidateShortID() error {
	if w.ShortID == "" {
		return apperrors.Validation(apperrors.CodeValidationFailed, "short ID is required")
	}
	if !shortIDPattern.MatchString(w.ShortID) {
		return apperrors.Validation(apperrors.CodeValidationFailed,
			fmt.Sprintf("short ID %q must be 3-6 uppercase letters followed by 2-4 digits (e.g. OBRA01)", w.ShortID))
	}
	return nil
}

// DisplayID returns the best short identifier for display.
func (w *Work) DisplayID() string {
	if w.ShortID != "" {
		return w.ShortID
	}
	if len(w.ID) >= 8 {
		return w.ID[:8]
	}
	return w.ID
}

// CheckTenant rejects actors operating outside the work's tenant.
func (w *Work) CheckTenant(actor Actor) error {
	if w.TenantID != "" && actor.TenantID != w.TenantID {
		return apperrors.Forbidden(apperrors.CodeTenantMismatch, "work belongs to another tenant")
	}
	return nil
}

// ToleranceOr returns the work's financial tolerance or the fallback when unset.
func (w *Work) ToleranceOr(fallback float64) float64 {
	if w.FinancialTolerance > 0 {
		return w.FinancialTolerance
	}
	return fallback
}

// StaleDaysOr returns the work's stale-progress window or the fallback when unset.
func (w *Work) StaleDaysOr(fallback int) int {
	if w.StaleDays > 0 {
		return w.StaleDays
	}
	return fallback
}

// EnterPlanning moves a draft work to planning. Other states are left alone.
func (w *Work) EnterPlanning(now time.Time) bool {
	if w.State != WorkDraft {
		return false
	}
	w.State = WorkPlanning
	w.UpdatedAt = now
	return true
}

// StartExecution moves a planning or paused work to running.
func (w *Work) StartExecution(now time.Time) error {
	switch w.State {
	case WorkPlanning, WorkPaused:
		w.State = WorkRunning
		w.UpdatedAt = now
		return nil
	default:
		return apperrors.Validation(apperrors.CodeInvalidState,
			fmt.Sprintf("cannot start execution of a work in state %q", w.State))
	}
}

// CompleteIfAllStagesDone moves a running work to done when every stage is done.
func (w *Work) CompleteIfAllStagesDone(stages []*Stage, now time.Time) bool {
	if w.State != WorkRunning || len(stages) == 0 {
		return false
	}
	for _, s := range stages {
		if s.State != StageDone {
			return false
		}
	}
	w.State = WorkDone
	w.UpdatedAt = now
	return true
}

package domain

import (
	"time"

	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

// ProgressEvent is an immutable ledger entry. LineID is nil for entries in
// the legacy stage-level ledger.
type ProgressEvent struct {
	ID           string
	WorkID       string
	StageID      string
	LineID       *string
	Seq          int
	Date         time.Time
	PercentDelta float64
	AuthorID     string
	Note         string
	Origin       EventOrigin
	State        EventState
	CreatedAt    time.Time
	CancelledAt  *time.Time
	CancelledBy  string
}

func (e *ProgressEvent) IsConfirmed() bool {
	return e.State == EventConfirmed
}

// IsStageLevel reports whether the event belongs to the legacy stage ledger.
func (e *ProgressEvent) IsStageLevel() bool {
	return e.LineID == nil
}

// Cancel removes the event's contribution from accumulation.
func (e *ProgressEvent) Cancel(by string, now time.Time) error {
	if e.State != EventConfirmed {
		return apperrors.Validation(apperrors.CodeInvalidState, "only a confirmed progress event can be cancelled")
	}
	e.State = EventCancelled
	e.CancelledAt = &now
	e.CancelledBy = by
	return nil
}

// Restore re-confirms a cancelled event. The caller checks capacity first.
func (e *ProgressEvent) Restore() error {
	if e.State != EventCancelled {
		return apperrors.Validation(apperrors.CodeInvalidState, "only a cancelled progress event can be restored")
	}
	e.State = EventConfirmed
	e.CancelledAt = nil
	e.CancelledBy = ""
	return nil
}

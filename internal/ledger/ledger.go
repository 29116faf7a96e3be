// Package ledger holds the accumulation rules of the append-only progress
// ledger. Every function is pure: callers load events inside their
// transaction and decide with these helpers before writing.
package ledger

import (
	"fmt"
	"time"

	"github.com/Moiss/building/internal/domain"
	apperrors "github.com/Moiss/building/internal/pkg/errors"
)

const (
	// Ceiling is the maximum accumulated percentage of a ledger.
	Ceiling = 100.0
	// DefaultEpsilon absorbs floating error when checking the ceiling.
	DefaultEpsilon = 0.01
)

// Accumulated sums the deltas of confirmed events.
func Accumulated(events []*domain.ProgressEvent) float64 {
	var sum float64
	for _, e := range events {
		if e.IsConfirmed() {
			sum += e.PercentDelta
		}
	}
	return sum
}

// AccumulatedAt returns the running total as of target: confirmed events
// dated strictly before it, plus same-date events ordered at or before it.
func AccumulatedAt(events []*domain.ProgressEvent, target *domain.ProgressEvent) float64 {
	targetDay := domain.DateOnly(target.Date)
	var sum float64
	for _, e := range events {
		if !e.IsConfirmed() {
			continue
		}
		day := domain.DateOnly(e.Date)
		if day.Before(targetDay) || (day.Equal(targetDay) && e.Seq <= target.Seq) {
			sum += e.PercentDelta
		}
	}
	return sum
}

// Remaining is the largest delta still registrable on top of accumulated.
func Remaining(accumulated float64) float64 {
	r := Ceiling - accumulated
	if r < 0 {
		return 0
	}
	return r
}

// CheckCapacity rejects a delta that would push the ledger above the ceiling.
func CheckCapacity(accumulated, delta, epsilon float64) error {
	if accumulated+delta > Ceiling+epsilon {
		return apperrors.ErrExceedsRemainingCapacityf(Remaining(accumulated))
	}
	return nil
}

// ValidateDelta requires 0 < delta <= 100.
func ValidateDelta(delta float64) error {
	if delta <= 0 || delta > Ceiling {
		return apperrors.Validation(apperrors.CodeValidationFailed,
			fmt.Sprintf("progress percentage must be greater than 0 and at most 100, got %v", delta)).
			WithParams(map[string]interface{}{"percent_delta": delta})
	}
	return nil
}

// ValidateDate rejects progress dated after today.
func ValidateDate(date, today time.Time) error {
	if domain.DateOnly(date).After(domain.DateOnly(today)) {
		return apperrors.Validation(apperrors.CodeValidationFailed,
			fmt.Sprintf("progress date %s cannot be in the future", date.Format("2006-01-02")))
	}
	return nil
}

// Latest returns the most recent confirmed event, ordered by date then seq.
func Latest(events []*domain.ProgressEvent) *domain.ProgressEvent {
	var latest *domain.ProgressEvent
	for _, e := range events {
		if !e.IsConfirmed() {
			continue
		}
		if latest == nil || after(e, latest) {
			latest = e
		}
	}
	return latest
}

// NextSeq returns the sequence number for a new event appended to events.
func NextSeq(events []*domain.ProgressEvent) int {
	highest := 0
	for _, e := range events {
		if e.Seq > highest {
			highest = e.Seq
		}
	}
	return highest + 1
}

func after(a, b *domain.ProgressEvent) bool {
	da, db := domain.DateOnly(a.Date), domain.DateOnly(b.Date)
	if !da.Equal(db) {
		return da.After(db)
	}
	return a.Seq > b.Seq
}

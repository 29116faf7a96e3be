package alerts

import (
	"math"
	"time"

	"github.com/Moiss/building/internal/domain"
)

// ExpectedProgress is the time-based progress a stage should show today:
// linear between its start and deadline, clamped to [0,100]. A stage with
// a zero or negative window expects 100 from the deadline on. Without both
// dates it expects nothing.
func ExpectedProgress(start, deadline *time.Time, today time.Time) float64 {
	if start == nil || deadline == nil {
		return 0
	}
	s, d, now := domain.DateOnly(*start), domain.DateOnly(*deadline), domain.DateOnly(today)

	totalDays := daysBetween(s, d)
	if totalDays <= 0 {
		if !now.Before(d) {
			return 100
		}
		return 0
	}
	elapsed := daysBetween(s, now)
	return math.Min(100, math.Max(0, float64(elapsed)/float64(totalDays)*100))
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

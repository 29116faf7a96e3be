package formatter

import (
	"regexp"
	"testing"
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/stretchr/testify/assert"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes escape codes so assertions are terminal-independent.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestRelativeDateFrom(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{"today", now, "Today"},
		{"tomorrow", now.Add(24 * time.Hour), "Tomorrow"},
		{"yesterday", now.Add(-24 * time.Hour), "Yesterday"},
		{"3 days future", now.Add(3 * 24 * time.Hour), "In 3d"},
		{"3 days past", now.Add(-3 * 24 * time.Hour), "3d ago"},
		{"3 weeks future", now.Add(21 * 24 * time.Hour), "In 3w"},
		{"3 months future", now.Add(90 * 24 * time.Hour), "In 3mo"},
		{"2 weeks past", now.Add(-14 * 24 * time.Hour), "2w ago"},
		{"3 months past", now.Add(-90 * 24 * time.Hour), "3mo ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeDateFrom(tt.input, now))
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "0.00"},
		{0.001, "0.00"},
		{1234.5, "1,234.50"},
		{1000000, "1,000,000.00"},
		{-500, "-500.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.amount))
	}
	assert.Equal(t, "-500.00", stripANSI(FormatMoneyStyled(-500)))
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "57.5%", FormatPct(57.5))
	assert.Equal(t, "0.0%", FormatPct(0))
	assert.Equal(t, "n/a", FormatPct(999))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-06-01", FormatDate(&d))
	assert.Equal(t, "--", stripANSI(FormatDate(nil)))
}

func TestDeadlineStyled(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 0, 1)
	assert.Equal(t, "Tomorrow", stripANSI(DeadlineStyled(&soon, now)))
	assert.Equal(t, "--", stripANSI(DeadlineStyled(nil, now)))
}

func TestPills(t *testing.T) {
	assert.Equal(t, "● Running", stripANSI(WorkStatePill(domain.WorkRunning)))
	assert.Equal(t, "◐ To Approve", stripANSI(StageStatePill(domain.StageToApprove)))
	assert.Equal(t, "✖ cancelled", stripANSI(EventStatePill(domain.EventCancelled)))
	assert.Equal(t, "● RED", stripANSI(LightIndicator(domain.LightRed)))
	assert.Equal(t, "● --", stripANSI(LightIndicator("")))
	assert.Equal(t, "▲ CRITICAL", stripANSI(SeverityBadge(domain.SeverityCritical)))
	assert.Equal(t, "● INFO", stripANSI(SeverityBadge(domain.SeverityInfo)))
}

func TestTruncID(t *testing.T) {
	assert.Equal(t, "abcdef12", stripANSI(TruncID("abcdef1234567890")))
	assert.Equal(t, "short", stripANSI(TruncID("short")))
}

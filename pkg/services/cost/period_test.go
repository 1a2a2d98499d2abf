package cost

import (
	"testing"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMonthToDate(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected domain.DateRange
	}{
		{
			name:     "mid month",
			now:      time.Date(2025, 6, 17, 15, 30, 0, 0, time.UTC),
			expected: domain.DateRange{Start: date("2025-06-01"), End: date("2025-06-17")},
		},
		{
			name:     "first of month falls back to previous month",
			now:      time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
			expected: domain.DateRange{Start: date("2025-05-01"), End: date("2025-06-01")},
		},
		{
			name:     "first of january",
			now:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: domain.DateRange{Start: date("2024-12-01"), End: date("2025-01-01")},
		},
		{
			name:     "clock converted to utc",
			now:      time.Date(2025, 3, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected: domain.DateRange{Start: date("2025-02-01"), End: date("2025-02-28")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MonthToDate(tt.now))
		})
	}
}

func TestTrailingDays(t *testing.T) {
	r := TrailingDays(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), 30)
	assert.Equal(t, date("2025-02-08"), r.Start)
	assert.Equal(t, date("2025-03-10"), r.End)
	assert.Equal(t, 30, r.Days())
}

func TestLastMonths(t *testing.T) {
	r := LastMonths(time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC), 6)
	assert.Equal(t, date("2025-01-01"), r.Start)
	assert.Equal(t, date("2025-06-17"), r.End)

	r = LastMonths(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, domain.DateRange{Start: date("2025-05-01"), End: date("2025-06-01")}, r)
}

func TestRangesNeverDegenerate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 366*2; day++ {
		now := start.AddDate(0, 0, day).Add(23 * time.Hour)
		for _, r := range []domain.DateRange{
			MonthToDate(now),
			TrailingDays(now, dailyWindowDays),
			TrailingDays(now, weeklyWindowWeeks*7),
			LastMonths(now, 1),
			LastMonths(now, 6),
		} {
			if !assert.True(t, r.Start.Before(r.End), "degenerate range %v for %s", r, now) {
				return
			}
		}
	}
}

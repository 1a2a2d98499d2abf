package cost

import (
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
)

const (
	dateLayout = "2006-01-02"

	dailyWindowDays    = 30
	weeklyWindowWeeks  = 12
	resourceWindowDays = 14 // Cost Explorer keeps resource-level data for 14 days
)

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// previousMonth is the last full calendar month before now.
func previousMonth(now time.Time) domain.DateRange {
	end := firstOfMonth(today(now))
	return domain.DateRange{Start: end.AddDate(0, -1, 0), End: end}
}

// orPreviousMonth substitutes the previous full month for an empty or inverted range.
func orPreviousMonth(r domain.DateRange, now time.Time) domain.DateRange {
	if r.Start.Before(r.End) {
		return r
	}
	return previousMonth(now)
}

// MonthToDate runs from the first of the current month to today. On the first day of a
// month the range would be empty, so the previous full month is used instead.
func MonthToDate(now time.Time) domain.DateRange {
	t := today(now)
	return orPreviousMonth(domain.DateRange{Start: firstOfMonth(t), End: t}, now)
}

// TrailingDays covers the n full days before today.
func TrailingDays(now time.Time, n int) domain.DateRange {
	t := today(now)
	return orPreviousMonth(domain.DateRange{Start: t.AddDate(0, 0, -n), End: t}, now)
}

// LastMonths starts at the first day of the month n-1 months ago and ends today, so the
// current partial month is the last bucket.
func LastMonths(now time.Time, n int) domain.DateRange {
	if n < 1 {
		n = 1
	}
	t := today(now)
	return orPreviousMonth(domain.DateRange{Start: firstOfMonth(t).AddDate(0, -(n - 1), 0), End: t}, now)
}

// Package schedule expands a campaign's date range into iterations and
// weeks and partitions an audience across drop weeks. Weeks are ISO calendar
// weeks (Monday to Sunday) in UTC.
package schedule

import (
	"fmt"
	"math"
	"time"
)

// Week is the length of one calendar week.
const Week = 7 * 24 * time.Hour

// endOfDayOffset keeps end instants representable at PostgreSQL's
// microsecond precision.
const endOfDayOffset = 24*time.Hour - time.Microsecond

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(endOfDayOffset)
}

// StartOfWeek returns Monday 00:00 UTC of t's ISO week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// EndOfWeek returns the last instant of Sunday of t's ISO week.
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 6).Add(endOfDayOffset)
}

// WeeksBetween counts whole calendar weeks from a's week to b's week.
func WeeksBetween(a, b time.Time) int {
	return int(StartOfWeek(b).Sub(StartOfWeek(a)).Hours() / (7 * 24))
}

// ShiftWeeks moves t forward by n weeks.
func ShiftWeeks(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, 7*n)
}

// CeilWeeks rounds a duration up to whole weeks. Non-positive durations are
// zero weeks.
func CeilWeeks(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(float64(d) / float64(Week)))
}

// ISOWeekRange returns the first and last instants of an ISO week.
func ISOWeekRange(year, week int) (time.Time, time.Time, error) {
	if year < 1 || week < 1 || week > 53 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid iso week %d-W%02d", year, week)
	}
	// January 4th is always in week 1.
	start := StartOfWeek(time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)).AddDate(0, 0, 7*(week-1))
	if y, w := start.ISOWeek(); y != year || w != week {
		return time.Time{}, time.Time{}, fmt.Errorf("year %d has no iso week %d", year, week)
	}
	return start, EndOfWeek(start), nil
}

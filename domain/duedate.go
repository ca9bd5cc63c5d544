package domain

import "time"

// Bucket classifies a due date relative to a reference day.
type Bucket string

const (
	BucketNone     Bucket = "none"
	BucketToday    Bucket = "today"
	BucketTomorrow Bucket = "tomorrow"
	BucketOverdue  Bucket = "overdue"
	BucketThisWeek Bucket = "thisWeek"
	BucketUpcoming Bucket = "upcoming"
)

// FilterNoDueDate is the due-date filter value matching tasks without a due
// date. It is a filter name, not a Bucket: BucketOf reports such tasks as
// BucketNone.
const FilterNoDueDate = "noDueDate"

// BucketOf classifies due relative to now. Today, tomorrow and overdue are
// decided at calendar-day granularity; thisWeek compares the full timestamp
// against the week window containing now. The caller supplies now, the
// function never reads the clock.
func BucketOf(due *time.Time, now time.Time) Bucket {
	if due == nil {
		return BucketNone
	}
	today := startOfDay(now)
	dueDay := startOfDay(*due)
	switch {
	case dueDay.Equal(today):
		return BucketToday
	case dueDay.Equal(today.AddDate(0, 0, 1)):
		return BucketTomorrow
	case dueDay.Before(today):
		return BucketOverdue
	}
	weekStart, weekEnd := weekWindow(now)
	if !due.Before(weekStart) && due.Before(weekEnd) {
		return BucketThisWeek
	}
	return BucketUpcoming
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// weekWindow returns the Sunday-based week containing now as a half-open
// interval [start, end).
func weekWindow(now time.Time) (time.Time, time.Time) {
	day := startOfDay(now)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

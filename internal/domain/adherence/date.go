package adherence

import "time"

// PeriodDays is the length of every period, inclusive of both ends.
const PeriodDays = 28

// DateLayout is the layout used to print and parse civil dates.
const DateLayout = "2006-01-02"

// Normalize strips the time of day from t, keeping the calendar date as seen in
// t's own location, and returns it as UTC midnight.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// withinDays reports whether day lies in [start, end]. All three must be normalized.
func withinDays(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

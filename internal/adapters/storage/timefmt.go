package storage

import (
	"fmt"
	"time"
)

// Column layouts. Civil dates and instants are stored as TEXT so they sort lexically.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "2006-01-02T15:04:05.999999999Z07:00"
)

// FormatDate renders a civil date column value.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate reads a civil date column as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date: %s", s)
	}
	return t, nil
}

// FormatTime renders an instant column value in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads an instant column, accepting the layouts older rows were written with.
func ParseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

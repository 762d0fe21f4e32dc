package adherence

import (
	"time"

	"coachdesk/internal/domain/adjustment"
)

// Boundary is the date window of one period, without any session data.
type Boundary struct {
	Number    int
	StartDate time.Time
	EndDate   time.Time
}

// Contains reports whether t's calendar date falls inside the window, both ends inclusive.
func (b Boundary) Contains(t time.Time) bool {
	return withinDays(Normalize(t), b.StartDate, b.EndDate)
}

// GenerateBoundaries lays out consecutive 28-day windows starting at joinDate.
// An adjustment for period n moves that period's start; periods after it continue
// from the adjusted end. Generation continues while the next start is on or before
// horizon, up to maxPeriods windows.
// PRE: none
// POST: Returns at least one boundary (period 1), numbered 1..n without gaps
// INVARIANT: adjustments is not mutated
func GenerateBoundaries(joinDate time.Time, adjustments map[int]time.Time, horizon time.Time, maxPeriods int) []Boundary {
	if maxPeriods <= 0 {
		maxPeriods = DefaultMaxPeriods
	}
	limit := Normalize(horizon)
	cursor := Normalize(joinDate)

	var out []Boundary
	for n := 1; n <= maxPeriods; n++ {
		if custom, ok := adjustments[n]; ok {
			cursor = Normalize(custom)
		}
		end := addDays(cursor, PeriodDays-1)
		out = append(out, Boundary{Number: n, StartDate: cursor, EndDate: end})

		cursor = addDays(end, 1)
		if cursor.After(limit) {
			break
		}
	}
	return out
}

// AdjustmentMap indexes stored adjustments by period number.
// If the same period appears twice the later entry wins.
func AdjustmentMap(adjustments []adjustment.PeriodAdjustment) map[int]time.Time {
	m := make(map[int]time.Time, len(adjustments))
	for _, a := range adjustments {
		m[a.PeriodNumber] = a.CustomStartDate
	}
	return m
}

package adherence

import (
	"sort"
	"time"

	"coachdesk/internal/domain/frequency"
	"coachdesk/internal/domain/session"
)

// Period is one computed adherence window. It is rebuilt on every call and never stored.
type Period struct {
	Number           int
	StartDate        time.Time
	EndDate          time.Time
	Frequency        int
	ExpectedSessions int
	Sessions         []ClassifiedSession // date ascending
	ScheduledCount   int
	CompletedCount   int
	MissedCount      int
	OtherCount       int
}

// ClassifiedSession pairs a session with the bucket it was counted in.
type ClassifiedSession struct {
	Session session.Session
	Bucket  string
}

// Contains reports whether t's calendar date falls inside the period, both ends inclusive.
func (p Period) Contains(t time.Time) bool {
	return withinDays(Normalize(t), p.StartDate, p.EndDate)
}

// AdherenceRate returns completed sessions as a fraction of the expected target.
// A period with no target reports 0.
func (p Period) AdherenceRate() float64 {
	if p.ExpectedSessions <= 0 {
		return 0
	}
	return float64(p.CompletedCount) / float64(p.ExpectedSessions)
}

// Input is a consistent snapshot of everything the engine reads for one client.
type Input struct {
	JoinDate         time.Time
	CurrentFrequency int
	History          []frequency.Change
	Adjustments      map[int]time.Time
	Sessions         []session.Session
	Now              time.Time
}

// BuildPeriods computes every period from the join date up to Now.
// PRE: in.Now is set by the caller
// POST: Returns a non-empty list in ascending period order; never fails
// INVARIANT: inputs are not mutated; identical input yields identical output
func BuildPeriods(in Input, policy Policy) []Period {
	bounds := GenerateBoundaries(in.JoinDate, in.Adjustments, in.Now, policy.maxPeriods())

	periods := make([]Period, 0, len(bounds))
	for _, b := range bounds {
		freq := ResolveFrequency(in.History, in.CurrentFrequency, b.StartDate)
		if freq < 0 {
			freq = 0
		}
		p := Period{
			Number:           b.Number,
			StartDate:        b.StartDate,
			EndDate:          b.EndDate,
			Frequency:        freq,
			ExpectedSessions: freq * ExpectedWeeksPerPeriod,
			Sessions:         []ClassifiedSession{},
		}

		for _, s := range in.Sessions {
			c := Classify(s, b, in.Now, policy)
			if !c.InPeriod {
				continue
			}
			p.Sessions = append(p.Sessions, ClassifiedSession{Session: s, Bucket: c.Bucket})
			switch c.Bucket {
			case BucketScheduled:
				p.ScheduledCount++
			case BucketCompleted:
				p.CompletedCount++
			case BucketMissed:
				p.MissedCount++
			default:
				p.OtherCount++
			}
		}
		sortSessions(p.Sessions)
		periods = append(periods, p)
	}
	return periods
}

// FindCurrent returns the period whose window contains now.
// POST: ok is false when now is before the first period or after the last one
func FindCurrent(periods []Period, now time.Time) (Period, bool) {
	for _, p := range periods {
		if p.Contains(now) {
			return p, true
		}
	}
	return Period{}, false
}

func sortSessions(list []ClassifiedSession) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].Session, list[j].Session
		da, db := Normalize(a.Date), Normalize(b.Date)
		if !da.Equal(db) {
			return da.Before(db)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}

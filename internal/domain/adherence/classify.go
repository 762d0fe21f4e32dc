package adherence

import (
	"time"

	"coachdesk/internal/domain/session"
)

// Bucket constants
const (
	BucketScheduled = "scheduled"
	BucketCompleted = "completed"
	BucketMissed    = "missed"
	BucketOther     = "other"
)

// Classification is the outcome of checking one session against one period.
type Classification struct {
	Bucket   string
	InPeriod bool
}

// Classify decides whether s belongs to window and which headline count it feeds.
// Status wins over dates: a completed session is completed whenever it happened.
// A session is past when its date (midnight in now's zone) is before now, so a session
// later today is already past; policy.UseStartTime uses its start time instead.
// Past scheduled and no-show sessions are missed, as are past cancellations when
// policy.CancelledCountsAsMissed is set. Upcoming scheduled sessions are scheduled.
// Everything else is other.
// PRE: window dates are normalized (as produced by GenerateBoundaries)
// POST: Returns a bucket from the Bucket constants
func Classify(s session.Session, window Boundary, now time.Time, policy Policy) Classification {
	c := Classification{
		Bucket:   BucketOther,
		InPeriod: window.Contains(s.Date),
	}

	past := sessionInstant(s, now.Location(), policy).Before(now)
	switch s.Status {
	case session.StatusCompleted:
		c.Bucket = BucketCompleted
	case session.StatusScheduled:
		if past {
			c.Bucket = BucketMissed
		} else {
			c.Bucket = BucketScheduled
		}
	case session.StatusNoShow:
		if past {
			c.Bucket = BucketMissed
		}
	case session.StatusCancelled:
		if past && policy.CancelledCountsAsMissed {
			c.Bucket = BucketMissed
		}
	}
	return c
}

func sessionInstant(s session.Session, loc *time.Location, policy Policy) time.Time {
	if policy.UseStartTime {
		return s.StartsAt(loc)
	}
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

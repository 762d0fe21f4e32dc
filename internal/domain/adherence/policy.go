package adherence

// DefaultMaxPeriods bounds period generation for far-future join dates and corrupt data.
const DefaultMaxPeriods = 20

// ExpectedWeeksPerPeriod converts a weekly frequency into a per-period target.
const ExpectedWeeksPerPeriod = 4

// Policy holds the business rules that are still open for discussion with the
// coaching team. They are configurable rather than baked in.
type Policy struct {
	// MaxPeriods caps how many periods are generated. Values <= 0 use DefaultMaxPeriods.
	MaxPeriods int
	// CancelledCountsAsMissed buckets past cancelled sessions as missed instead of other.
	CancelledCountsAsMissed bool
	// UseStartTime compares a session's start time, not just its calendar day, against
	// now. Off by default: any session dated before now's instant has passed, including
	// one later today.
	UseStartTime bool
}

// DefaultPolicy returns the rules the back office has always applied.
func DefaultPolicy() Policy {
	return Policy{
		MaxPeriods:              DefaultMaxPeriods,
		CancelledCountsAsMissed: true,
	}
}

func (p Policy) maxPeriods() int {
	if p.MaxPeriods <= 0 {
		return DefaultMaxPeriods
	}
	return p.MaxPeriods
}

package adherence

import (
	"sort"
	"time"

	"coachdesk/internal/domain/frequency"
)

// ResolveFrequency returns the weekly frequency in effect on at.
// PRE: none
// POST: Returns the frequency of the latest change effective on or before at, or
// current when no change qualifies (empty history, or at predates all of it)
// INVARIANT: history is not mutated
func ResolveFrequency(history []frequency.Change, current int, at time.Time) int {
	if len(history) == 0 {
		return current
	}

	sorted := make([]frequency.Change, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.After(sorted[j].EffectiveFrom)
	})

	day := Normalize(at)
	for _, c := range sorted {
		if !Normalize(c.EffectiveFrom).After(day) {
			return c.Frequency
		}
	}
	return current
}

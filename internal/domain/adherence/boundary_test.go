package adherence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachdesk/internal/domain/adjustment"
)

func TestGenerateBoundaries_SinglePeriodOnJoinDay(t *testing.T) {
	got := GenerateBoundaries(day(t, "2024-01-01"), nil, day(t, "2024-01-01"), DefaultMaxPeriods)

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, day(t, "2024-01-01"), got[0].StartDate)
	assert.Equal(t, day(t, "2024-01-28"), got[0].EndDate)
}

func TestGenerateBoundaries_ContiguousWindows(t *testing.T) {
	got := GenerateBoundaries(day(t, "2024-01-01"), nil, day(t, "2024-03-01"), DefaultMaxPeriods)

	require.Len(t, got, 3)
	for i, b := range got {
		assert.Equal(t, i+1, b.Number)
		assert.Equal(t, addDays(b.StartDate, 27), b.EndDate)
		if i > 0 {
			assert.Equal(t, addDays(got[i-1].EndDate, 1), b.StartDate)
		}
	}
	assert.Equal(t, day(t, "2024-01-29"), got[1].StartDate)
	assert.Equal(t, day(t, "2024-02-26"), got[2].StartDate)
}

func TestGenerateBoundaries_HorizonOnNextStartAddsPeriod(t *testing.T) {
	got := GenerateBoundaries(day(t, "2024-01-01"), nil, day(t, "2024-01-29"), DefaultMaxPeriods)
	require.Len(t, got, 2)

	got = GenerateBoundaries(day(t, "2024-01-01"), nil, day(t, "2024-01-28"), DefaultMaxPeriods)
	require.Len(t, got, 1)
}

func TestGenerateBoundaries_AdjustmentCascades(t *testing.T) {
	adj := map[int]time.Time{2: day(t, "2024-02-10")}
	got := GenerateBoundaries(day(t, "2024-01-01"), adj, day(t, "2024-03-20"), DefaultMaxPeriods)

	require.Len(t, got, 3)
	assert.Equal(t, day(t, "2024-01-28"), got[0].EndDate)
	assert.Equal(t, day(t, "2024-02-10"), got[1].StartDate, "adjusted start wins, a gap is allowed")
	assert.Equal(t, day(t, "2024-03-08"), got[1].EndDate)
	assert.Equal(t, day(t, "2024-03-09"), got[2].StartDate, "later periods continue from the adjusted end")
}

func TestGenerateBoundaries_AdjustmentIsNormalized(t *testing.T) {
	adj := map[int]time.Time{1: time.Date(2024, 1, 5, 17, 45, 0, 0, time.UTC)}
	got := GenerateBoundaries(day(t, "2024-01-01"), adj, day(t, "2024-01-05"), DefaultMaxPeriods)

	require.Len(t, got, 1)
	assert.Equal(t, day(t, "2024-01-05"), got[0].StartDate)
}

func TestGenerateBoundaries_AdjustmentMovesPeriodEarlier(t *testing.T) {
	adj := map[int]time.Time{2: day(t, "2024-01-20")}
	got := GenerateBoundaries(day(t, "2024-01-01"), adj, day(t, "2024-02-20"), DefaultMaxPeriods)

	require.Len(t, got, 3)
	assert.Equal(t, day(t, "2024-01-20"), got[1].StartDate)
	assert.Equal(t, day(t, "2024-02-17"), got[2].StartDate)
}

func TestGenerateBoundaries_FutureJoinStillEmitsPeriodOne(t *testing.T) {
	got := GenerateBoundaries(day(t, "2030-05-01"), nil, day(t, "2024-01-01"), DefaultMaxPeriods)

	require.Len(t, got, 1)
	assert.Equal(t, day(t, "2030-05-01"), got[0].StartDate)
}

func TestGenerateBoundaries_CappedAtMaxPeriods(t *testing.T) {
	got := GenerateBoundaries(day(t, "2000-01-01"), nil, day(t, "2024-01-01"), DefaultMaxPeriods)
	require.Len(t, got, DefaultMaxPeriods)
	assert.Equal(t, DefaultMaxPeriods, got[len(got)-1].Number)

	got = GenerateBoundaries(day(t, "2000-01-01"), nil, day(t, "2024-01-01"), 0)
	assert.Len(t, got, DefaultMaxPeriods, "non-positive cap falls back to the default")

	got = GenerateBoundaries(day(t, "2000-01-01"), nil, day(t, "2024-01-01"), 5)
	assert.Len(t, got, 5)
}

func TestGenerateBoundaries_DoesNotMutateAdjustments(t *testing.T) {
	adj := map[int]time.Time{3: day(t, "2024-03-01")}
	GenerateBoundaries(day(t, "2024-01-01"), adj, day(t, "2024-06-01"), DefaultMaxPeriods)

	assert.Len(t, adj, 1)
	assert.Equal(t, day(t, "2024-03-01"), adj[3])
}

func TestGenerateBoundaries_LocalJoinTimeKeepsCalendarDay(t *testing.T) {
	loc := time.FixedZone("NZDT", 13*3600)
	join := time.Date(2024, 1, 1, 6, 0, 0, 0, loc) // still Dec 31 in UTC
	got := GenerateBoundaries(join, nil, join, DefaultMaxPeriods)

	require.Len(t, got, 1)
	assert.Equal(t, day(t, "2024-01-01"), got[0].StartDate)
}

func TestAdjustmentMap(t *testing.T) {
	m := AdjustmentMap([]adjustment.PeriodAdjustment{
		{PeriodNumber: 2, CustomStartDate: day(t, "2024-02-10")},
		{PeriodNumber: 5, CustomStartDate: day(t, "2024-06-01")},
	})
	assert.Equal(t, map[int]time.Time{
		2: day(t, "2024-02-10"),
		5: day(t, "2024-06-01"),
	}, m)
	assert.Empty(t, AdjustmentMap(nil))
}

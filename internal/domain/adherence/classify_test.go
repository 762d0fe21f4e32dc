package adherence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"coachdesk/internal/domain/session"
)

func TestClassify_Buckets(t *testing.T) {
	window := Boundary{Number: 1, StartDate: day(t, "2024-01-01"), EndDate: day(t, "2024-01-28")}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	past := day(t, "2024-01-13")
	future := day(t, "2024-01-17")

	tests := []struct {
		name   string
		status string
		date   time.Time
		policy Policy
		want   string
	}{
		{"completed in the past", session.StatusCompleted, past, DefaultPolicy(), BucketCompleted},
		{"completed in the future still completed", session.StatusCompleted, future, DefaultPolicy(), BucketCompleted},
		{"scheduled in the past is missed", session.StatusScheduled, past, DefaultPolicy(), BucketMissed},
		{"scheduled in the future", session.StatusScheduled, future, DefaultPolicy(), BucketScheduled},
		{"no-show in the past is missed", session.StatusNoShow, past, DefaultPolicy(), BucketMissed},
		{"no-show in the future is other", session.StatusNoShow, future, DefaultPolicy(), BucketOther},
		{"cancelled in the past is missed by default", session.StatusCancelled, past, DefaultPolicy(), BucketMissed},
		{"cancelled in the past is other when policy disabled", session.StatusCancelled, past, Policy{CancelledCountsAsMissed: false}, BucketOther},
		{"cancelled in the future is other", session.StatusCancelled, future, DefaultPolicy(), BucketOther},
		{"unknown status is other", "rescheduled", past, DefaultPolicy(), BucketOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.Session{ID: "s1", Date: tt.date, Status: tt.status}
			got := Classify(s, window, now, tt.policy)
			assert.Equal(t, tt.want, got.Bucket)
			assert.True(t, got.InPeriod)
		})
	}
}

// Scenario: a scheduled session two days before now is missed, two days after is scheduled.
func TestClassify_ScheduledAroundNow(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	window := Boundary{Number: 1, StartDate: day(t, "2024-01-01"), EndDate: day(t, "2024-01-28")}

	before := session.Session{Date: now.AddDate(0, 0, -2), Status: session.StatusScheduled}
	after := session.Session{Date: now.AddDate(0, 0, 2), Status: session.StatusScheduled}

	assert.Equal(t, BucketMissed, Classify(before, window, now, DefaultPolicy()).Bucket)
	assert.Equal(t, BucketScheduled, Classify(after, window, now, DefaultPolicy()).Bucket)
}

// A session later today has a date before now, so it is already missed.
func TestClassify_SameDayComparesDateOnly(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	window := Boundary{Number: 1, StartDate: day(t, "2024-01-01"), EndDate: day(t, "2024-01-28")}

	for _, clock := range []string{"07:00", "18:00", ""} {
		s := session.Session{Date: day(t, "2024-01-15"), StartTime: clock, Status: session.StatusScheduled}
		assert.Equal(t, BucketMissed, Classify(s, window, now, DefaultPolicy()).Bucket, "start %q", clock)
	}

	tomorrow := session.Session{Date: day(t, "2024-01-16"), StartTime: "06:00", Status: session.StatusScheduled}
	assert.Equal(t, BucketScheduled, Classify(tomorrow, window, now, DefaultPolicy()).Bucket)
}

func TestClassify_UseStartTimePolicy(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	window := Boundary{Number: 1, StartDate: day(t, "2024-01-01"), EndDate: day(t, "2024-01-28")}
	policy := DefaultPolicy()
	policy.UseStartTime = true

	morning := session.Session{Date: day(t, "2024-01-15"), StartTime: "07:00", Status: session.StatusScheduled}
	evening := session.Session{Date: day(t, "2024-01-15"), StartTime: "18:00", Status: session.StatusScheduled}
	untimed := session.Session{Date: day(t, "2024-01-15"), Status: session.StatusScheduled}

	assert.Equal(t, BucketMissed, Classify(morning, window, now, policy).Bucket)
	assert.Equal(t, BucketScheduled, Classify(evening, window, now, policy).Bucket)
	assert.Equal(t, BucketMissed, Classify(untimed, window, now, policy).Bucket, "untimed sessions start at midnight")
}

func TestClassify_DateReadInNowsZone(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	window := Boundary{Number: 1, StartDate: day(t, "2024-01-01"), EndDate: day(t, "2024-01-28")}
	// 08:00 on the 15th in Auckland is still the 14th in UTC.
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, auckland)

	today := session.Session{Date: day(t, "2024-01-15"), Status: session.StatusScheduled}
	assert.Equal(t, BucketMissed, Classify(today, window, now, DefaultPolicy()).Bucket)
}

func TestClassify_Membership(t *testing.T) {
	window := Boundary{Number: 1, StartDate: day(t, "2024-01-01"), EndDate: day(t, "2024-01-28")}
	now := day(t, "2024-02-01")

	tests := []struct {
		date string
		want bool
	}{
		{"2023-12-31", false},
		{"2024-01-01", true},
		{"2024-01-28", true},
		{"2024-01-29", false},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			s := session.Session{Date: day(t, tt.date), Status: session.StatusCompleted}
			assert.Equal(t, tt.want, Classify(s, window, now, DefaultPolicy()).InPeriod)
		})
	}
}

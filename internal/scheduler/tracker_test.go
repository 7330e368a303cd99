package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRoomAndGlobalSlot(t *testing.T) {
	slot := TimeSlot{Date: day("2024-06-03"), Time: 9 * 60}
	room := Room{ID: "r1", Capacity: 10}
	course := Course{ID: "c1", Grade: 1, Students: []string{"s1"}}

	relaxed := NewTracker(false)
	relaxed.Commit(course, room, slot, time.Hour)
	assert.False(t, relaxed.IsRoomFree("r1", slot))
	assert.True(t, relaxed.IsRoomFree("r2", slot))
	assert.True(t, relaxed.IsGlobalSlotFree(slot))

	strict := NewTracker(true)
	strict.Commit(course, room, slot, time.Hour)
	assert.False(t, strict.IsGlobalSlotFree(slot))
	assert.True(t, strict.IsGlobalSlotFree(TimeSlot{Date: slot.Date, Time: 13 * 60}))
}

func TestTrackerStudentSeparation(t *testing.T) {
	tr := NewTracker(false)
	slot := TimeSlot{Date: day("2024-06-03"), Time: 9 * 60}
	tr.Commit(Course{ID: "c1", Students: []string{"s1", "s2"}}, Room{ID: "r1"}, slot, 75*time.Minute)

	base := slot.Start()
	cases := []struct {
		name     string
		start    time.Time
		gap      time.Duration
		conflict bool
	}{
		{"overlap", base.Add(30 * time.Minute), 0, true},
		{"back to back without gap", base.Add(75 * time.Minute), 0, false},
		{"inside gap after", base.Add(85 * time.Minute), 15 * time.Minute, true},
		{"exactly gap after", base.Add(90 * time.Minute), 15 * time.Minute, false},
		{"inside gap before", base.Add(-80 * time.Minute), 15 * time.Minute, true},
		{"exactly gap before", base.Add(-90 * time.Minute), 15 * time.Minute, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tr.HasStudentConflict([]string{"s2"}, tc.start, tc.start.Add(75*time.Minute), tc.gap)
			assert.Equal(t, tc.conflict, got)
		})
	}

	assert.False(t, tr.HasStudentConflict([]string{"s9"}, base, base.Add(time.Hour), 0))
}

func TestTrackerGradeCap(t *testing.T) {
	tr := NewTracker(false)
	date := day("2024-06-03")
	for i, tod := range []TimeOfDay{8 * 60, 10 * 60} {
		tr.Commit(Course{ID: string(rune('a' + i)), Grade: 3}, Room{ID: "r"}, TimeSlot{Date: date, Time: tod}, time.Hour)
	}
	tr.Commit(Course{ID: "ungraded"}, Room{ID: "r"}, TimeSlot{Date: date, Time: 14 * 60}, time.Hour)

	assert.True(t, tr.GradeCapReached(3, date, 2))
	assert.False(t, tr.GradeCapReached(3, date, 3))
	assert.False(t, tr.GradeCapReached(3, date.AddDate(0, 0, 1), 2))
	assert.False(t, tr.GradeCapReached(3, date, -1), "negative cap is unlimited")
	assert.False(t, tr.GradeCapReached(0, date, 1), "grade 0 is never capped")
}

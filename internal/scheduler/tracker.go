package scheduler

import (
	"sort"
	"time"
)

type slotKey struct {
	Date time.Time
	Time TimeOfDay
}

type roomSlotKey struct {
	RoomID string
	Slot   slotKey
}

type gradeDayKey struct {
	Grade int
	Date  time.Time
}

type interval struct {
	Start time.Time
	End   time.Time
}

// Tracker holds the mutable feasibility state of a single run. It is not safe for concurrent
// use; every run owns its own instance.
type Tracker struct {
	noSimultaneous   bool
	roomBookings     map[roomSlotKey]struct{}
	studentIntervals map[string][]interval
	gradeDayCounts   map[gradeDayKey]int
	globalSlotUsed   map[slotKey]struct{}
}

// NewTracker builds an empty tracker. noSimultaneous enables the global one-exam-per-slot rule.
func NewTracker(noSimultaneous bool) *Tracker {
	return &Tracker{
		noSimultaneous:   noSimultaneous,
		roomBookings:     make(map[roomSlotKey]struct{}),
		studentIntervals: make(map[string][]interval),
		gradeDayCounts:   make(map[gradeDayKey]int),
		globalSlotUsed:   make(map[slotKey]struct{}),
	}
}

func keyOf(slot TimeSlot) slotKey {
	return slotKey{Date: CivilDate(slot.Date), Time: slot.Time}
}

// IsRoomFree reports whether the room has no booking at the slot.
func (t *Tracker) IsRoomFree(roomID string, slot TimeSlot) bool {
	_, booked := t.roomBookings[roomSlotKey{RoomID: roomID, Slot: keyOf(slot)}]
	return !booked
}

// IsGlobalSlotFree reports whether no exam at all uses the slot. Always true when the
// non-simultaneous rule is off.
func (t *Tracker) IsGlobalSlotFree(slot TimeSlot) bool {
	if !t.noSimultaneous {
		return true
	}
	_, used := t.globalSlotUsed[keyOf(slot)]
	return !used
}

// HasStudentConflict reports whether any student already sits an exam overlapping
// [start, end] once both intervals are padded by minGap.
func (t *Tracker) HasStudentConflict(students []string, start, end time.Time, minGap time.Duration) bool {
	for _, id := range students {
		for _, iv := range t.studentIntervals[id] {
			if start.Before(iv.End.Add(minGap)) && iv.Start.Before(end.Add(minGap)) {
				return true
			}
		}
	}
	return false
}

// GradeCapReached reports whether the grade already has cap exams on date. Grade 0 and a
// non-positive cap never reach a limit.
func (t *Tracker) GradeCapReached(grade int, date time.Time, limit int) bool {
	if grade == 0 || limit <= 0 {
		return false
	}
	return t.gradeDayCounts[gradeDayKey{Grade: grade, Date: CivilDate(date)}] >= limit
}

// Commit records a placement. Call it once per placement after every check passed.
func (t *Tracker) Commit(course Course, room Room, slot TimeSlot, duration time.Duration) {
	key := keyOf(slot)
	t.roomBookings[roomSlotKey{RoomID: room.ID, Slot: key}] = struct{}{}
	t.globalSlotUsed[key] = struct{}{}

	start := slot.Start()
	iv := interval{Start: start, End: start.Add(duration)}
	for _, id := range course.Students {
		list := append(t.studentIntervals[id], iv)
		sort.Slice(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
		t.studentIntervals[id] = list
	}
	if course.Grade != 0 {
		t.gradeDayCounts[gradeDayKey{Grade: course.Grade, Date: key.Date}]++
	}
}

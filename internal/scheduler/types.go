package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fatal preconditions abort a run before any course is scanned.
var (
	ErrNoRoomsConfigured = errors.New("no rooms configured")
	ErrNoEligibleDates   = errors.New("no eligible exam dates in range")
	ErrDataUnavailable   = errors.New("roster data unavailable")
	ErrInvalidOptions    = errors.New("invalid scheduling options")

	ErrSeatCapacityExceeded = errors.New("occupiable seats fewer than enrolled students")
)

// FailureReason is a structured reason code attached to a course or exam that did not make it
// through a run.
type FailureReason string

const (
	ReasonCapacityExceeded     FailureReason = "CAPACITY_EXCEEDED"
	ReasonNoFeasibleSlot       FailureReason = "NO_FEASIBLE_SLOT"
	ReasonPersistenceError     FailureReason = "PERSISTENCE_ERROR"
	ReasonSeatCapacityExceeded FailureReason = "SEAT_CAPACITY_EXCEEDED"
)

// Course is a read-only scheduling input.
type Course struct {
	ID              string
	Code            string
	Name            string
	Grade           int
	Students        []string
	DurationMinutes int
}

// EnrolledCount returns the number of distinct enrolled students.
func (c Course) EnrolledCount() int {
	return len(c.Students)
}

// Room describes a bookable exam room and its seating grid.
type Room struct {
	ID        string
	Code      string
	Name      string
	Capacity  int
	Columns   int
	Rows      int
	GroupSize int
}

// TimeOfDay is a wall-clock start time expressed in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (or "H:MM").
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("time of day %q: expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("time of day %q: invalid hour", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time of day %q: invalid minute", raw)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// String renders the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Offset returns the duration after midnight.
func (t TimeOfDay) Offset() time.Duration {
	return time.Duration(t) * time.Minute
}

// TimeSlot is a (date, time-of-day) pair.
type TimeSlot struct {
	Date time.Time
	Time TimeOfDay
}

// Start returns the absolute start instant of the slot.
func (s TimeSlot) Start() time.Time {
	return s.Date.Add(s.Time.Offset())
}

// ScheduledExam is the outcome of one successful placement.
type ScheduledExam struct {
	Course          Course
	Room            Room
	Slot            TimeSlot
	DurationMinutes int
}

// Start returns the exam start instant.
func (e ScheduledExam) Start() time.Time {
	return e.Slot.Start()
}

// End returns the exam end instant.
func (e ScheduledExam) End() time.Time {
	return e.Start().Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// EnrolledCount returns the size of the course roster.
func (e ScheduledExam) EnrolledCount() int {
	return e.Course.EnrolledCount()
}

// SeatAssignment places one student on a grid position.
type SeatAssignment struct {
	StudentID string
	Row       int
	Column    int
}

// SeatMap is the full occupancy of one exam.
type SeatMap struct {
	Seats []SeatAssignment
}

// CivilDate strips the clock from t and returns the date at midnight UTC.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

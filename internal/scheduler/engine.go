package scheduler

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// RoomPolicy selects the order in which candidate rooms are tried for a course.
type RoomPolicy string

const (
	// RoomPolicySmallestFit tries the smallest sufficient room first.
	RoomPolicySmallestFit RoomPolicy = "smallest_fit"
	// RoomPolicyRoundRobin rotates the capacity-ordered candidates by a run-wide offset that
	// advances once per scanned course, spreading load across rooms.
	RoomPolicyRoundRobin RoomPolicy = "round_robin"
)

// DefaultMaxExamsPerGradePerDay applies when Options.MaxExamsPerGradePerDay is zero.
const DefaultMaxExamsPerGradePerDay = 2

// Options is the configuration of one run.
type Options struct {
	StartDate              time.Time
	EndDate                time.Time
	TimesOfDay             []TimeOfDay
	DefaultDurationMinutes int
	DurationOverrides      map[string]int
	MinSeparationMinutes   int
	SkipWeekends           bool
	ExcludedWeekdays       []time.Weekday
	ExcludedDates          []time.Time
	NoSimultaneous         bool
	// MaxExamsPerGradePerDay: zero means DefaultMaxExamsPerGradePerDay, negative disables the cap.
	MaxExamsPerGradePerDay int
	RoomPolicy             RoomPolicy
}

// Calendar returns the date generator described by the options.
func (o Options) Calendar() Calendar {
	return Calendar{
		Start:            o.StartDate,
		End:              o.EndDate,
		SkipWeekends:     o.SkipWeekends,
		ExcludedWeekdays: o.ExcludedWeekdays,
		ExcludedDates:    o.ExcludedDates,
	}
}

func (o Options) validate() error {
	if len(o.TimesOfDay) == 0 {
		return fmt.Errorf("%w: at least one time of day is required", ErrInvalidOptions)
	}
	for _, t := range o.TimesOfDay {
		if t < 0 || t >= 24*60 {
			return fmt.Errorf("%w: time of day %d out of range", ErrInvalidOptions, int(t))
		}
	}
	if o.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("%w: default duration must be positive", ErrInvalidOptions)
	}
	for id, minutes := range o.DurationOverrides {
		if minutes <= 0 {
			return fmt.Errorf("%w: duration override for course %s must be positive", ErrInvalidOptions, id)
		}
	}
	if o.MinSeparationMinutes < 0 {
		return fmt.Errorf("%w: minimum separation cannot be negative", ErrInvalidOptions)
	}
	switch o.RoomPolicy {
	case "", RoomPolicySmallestFit, RoomPolicyRoundRobin:
	default:
		return fmt.Errorf("%w: unknown room policy %q", ErrInvalidOptions, o.RoomPolicy)
	}
	return nil
}

// Engine runs the single-pass greedy placement. An Engine holds no run state and may be
// reused; each Run builds its own Tracker.
type Engine struct {
	opts   Options
	times  []TimeOfDay
	logger *zap.Logger
}

// NewEngine validates the options and returns an engine.
func NewEngine(opts Options, logger *zap.Logger) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RoomPolicy == "" {
		opts.RoomPolicy = RoomPolicySmallestFit
	}
	if opts.MaxExamsPerGradePerDay == 0 {
		opts.MaxExamsPerGradePerDay = DefaultMaxExamsPerGradePerDay
	}
	return &Engine{opts: opts, times: dedupeTimes(opts.TimesOfDay), logger: logger}, nil
}

// Options returns the effective options after defaults were applied.
func (e *Engine) Options() Options {
	return e.opts
}

// Run schedules every course of the roster. Fatal preconditions return an error and no report.
func (e *Engine) Run(roster *Roster) (*Report, error) {
	if roster == nil || len(roster.Rooms) == 0 {
		return nil, ErrNoRoomsConfigured
	}
	dates := e.opts.Calendar().Dates()
	if len(dates) == 0 {
		return nil, ErrNoEligibleDates
	}

	tracker := NewTracker(e.opts.NoSimultaneous)
	report := &Report{}
	gap := time.Duration(e.opts.MinSeparationMinutes) * time.Minute
	rotation := 0

	for _, course := range orderCourses(roster.Courses) {
		log := e.logger.With(zap.String("course_id", course.ID), zap.String("course_code", course.Code))
		candidates := roster.CandidateRooms(course.EnrolledCount())
		if len(candidates) == 0 {
			log.Debug("course exhausted", zap.String("reason", string(ReasonCapacityExceeded)), zap.Int("enrolled", course.EnrolledCount()))
			report.RecordFailure(Failure{Course: course, Reason: ReasonCapacityExceeded})
			continue
		}
		if e.opts.RoomPolicy == RoomPolicyRoundRobin {
			candidates = rotate(candidates, rotation)
			rotation++
		}

		duration := e.durationFor(course)
		exam, ok := e.scan(tracker, course, candidates, dates, duration, gap)
		if !ok {
			log.Debug("course exhausted", zap.String("reason", string(ReasonNoFeasibleSlot)))
			report.RecordFailure(Failure{Course: course, Reason: ReasonNoFeasibleSlot})
			continue
		}
		log.Debug("course placed",
			zap.String("room_id", exam.Room.ID),
			zap.Time("start", exam.Start()),
			zap.Int("duration_minutes", exam.DurationMinutes),
		)
		report.recordExam(exam)
	}

	e.logger.Info("exam scheduling run completed",
		zap.Int("courses", len(roster.Courses)),
		zap.Int("placed", report.Placed()),
		zap.Int("failed", report.Failed()),
		zap.Int("dates", len(dates)),
	)
	return report, nil
}

// scan walks dates (outer), times (middle) and rooms (inner) and commits the first feasible
// combination.
func (e *Engine) scan(tracker *Tracker, course Course, rooms []Room, dates []time.Time, minutes int, gap time.Duration) (ScheduledExam, bool) {
	length := time.Duration(minutes) * time.Minute
	for _, date := range dates {
		if tracker.GradeCapReached(course.Grade, date, e.opts.MaxExamsPerGradePerDay) {
			continue
		}
		for _, tod := range e.times {
			slot := TimeSlot{Date: date, Time: tod}
			if !tracker.IsGlobalSlotFree(slot) {
				continue
			}
			start := slot.Start()
			if tracker.HasStudentConflict(course.Students, start, start.Add(length), gap) {
				continue
			}
			for _, room := range rooms {
				if !tracker.IsRoomFree(room.ID, slot) {
					continue
				}
				tracker.Commit(course, room, slot, length)
				return ScheduledExam{Course: course, Room: room, Slot: slot, DurationMinutes: minutes}, true
			}
		}
	}
	return ScheduledExam{}, false
}

func (e *Engine) durationFor(course Course) int {
	if minutes, ok := e.opts.DurationOverrides[course.ID]; ok && minutes > 0 {
		return minutes
	}
	if course.DurationMinutes > 0 {
		return course.DurationMinutes
	}
	return e.opts.DefaultDurationMinutes
}

// orderCourses sorts by grade ascending then enrolled count descending, keeping input order
// for ties.
func orderCourses(courses []Course) []Course {
	ordered := make([]Course, len(courses))
	copy(ordered, courses)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Grade != ordered[j].Grade {
			return ordered[i].Grade < ordered[j].Grade
		}
		return ordered[i].EnrolledCount() > ordered[j].EnrolledCount()
	})
	return ordered
}

func rotate(rooms []Room, offset int) []Room {
	n := len(rooms)
	shift := offset % n
	out := make([]Room, 0, n)
	out = append(out, rooms[shift:]...)
	return append(out, rooms[:shift]...)
}

func dedupeTimes(times []TimeOfDay) []TimeOfDay {
	seen := make(map[TimeOfDay]bool, len(times))
	out := make([]TimeOfDay, 0, len(times))
	for _, t := range times {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

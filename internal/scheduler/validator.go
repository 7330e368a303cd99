package scheduler

import (
	"fmt"
	"time"
)

// Violation names one broken placement rule found in a finished report.
type Violation struct {
	Rule    string
	Message string
}

const (
	RuleRoomDoubleBooked   = "room_double_booked"
	RuleRoomCapacity       = "room_capacity"
	RuleStudentSeparation  = "student_separation"
	RuleSimultaneousExams  = "simultaneous_exams"
	RuleGradeDailyCap      = "grade_daily_cap"
	RuleSeatOutsideGrid    = "seat_outside_grid"
	RuleSeatDoubleAssigned = "seat_double_assigned"
)

// Validate re-checks every placement rule over a finished report using the effective options
// of the engine that produced it. An empty result means the schedule is consistent.
func Validate(report *Report, opts Options) []Violation {
	var violations []Violation
	if report == nil {
		return nil
	}

	limit := opts.MaxExamsPerGradePerDay
	if limit == 0 {
		limit = DefaultMaxExamsPerGradePerDay
	}
	gap := time.Duration(opts.MinSeparationMinutes) * time.Minute

	rooms := make(map[roomSlotKey]string)
	slots := make(map[slotKey]string)
	grades := make(map[gradeDayKey]int)
	for _, exam := range report.Exams {
		key := keyOf(exam.Slot)
		rk := roomSlotKey{RoomID: exam.Room.ID, Slot: key}
		if other, ok := rooms[rk]; ok {
			violations = append(violations, Violation{RuleRoomDoubleBooked,
				fmt.Sprintf("room %s holds %s and %s at %s", exam.Room.Code, other, exam.Course.Code, exam.Start().Format(time.RFC3339))})
		}
		rooms[rk] = exam.Course.Code

		if exam.EnrolledCount() > exam.Room.Capacity {
			violations = append(violations, Violation{RuleRoomCapacity,
				fmt.Sprintf("course %s has %d students, room %s seats %d", exam.Course.Code, exam.EnrolledCount(), exam.Room.Code, exam.Room.Capacity)})
		}

		if opts.NoSimultaneous {
			if other, ok := slots[key]; ok {
				violations = append(violations, Violation{RuleSimultaneousExams,
					fmt.Sprintf("courses %s and %s share %s", other, exam.Course.Code, exam.Start().Format(time.RFC3339))})
			}
			slots[key] = exam.Course.Code
		}

		if exam.Course.Grade != 0 && limit > 0 {
			gk := gradeDayKey{Grade: exam.Course.Grade, Date: key.Date}
			grades[gk]++
			if grades[gk] == limit+1 {
				violations = append(violations, Violation{RuleGradeDailyCap,
					fmt.Sprintf("grade %d exceeds %d exams on %s", gk.Grade, limit, gk.Date.Format("2006-01-02"))})
			}
		}
	}

	for i := 0; i < len(report.Exams); i++ {
		for j := i + 1; j < len(report.Exams); j++ {
			a, b := report.Exams[i], report.Exams[j]
			if !(a.Start().Before(b.End().Add(gap)) && b.Start().Before(a.End().Add(gap))) {
				continue
			}
			if shared := sharedStudent(a.Course.Students, b.Course.Students); shared != "" {
				violations = append(violations, Violation{RuleStudentSeparation,
					fmt.Sprintf("student %s sits %s and %s too close together", shared, a.Course.Code, b.Course.Code)})
			}
		}
	}
	return violations
}

// ValidateSeats checks a seat map against the room grid.
func ValidateSeats(room Room, seats SeatMap) []Violation {
	var violations []Violation
	used := make(map[[2]int]string, len(seats.Seats))
	for _, s := range seats.Seats {
		if s.Row < 0 || s.Row >= room.Rows || s.Column < 0 || s.Column >= room.Columns {
			violations = append(violations, Violation{RuleSeatOutsideGrid,
				fmt.Sprintf("student %s at row %d column %d outside %dx%d grid", s.StudentID, s.Row, s.Column, room.Rows, room.Columns)})
			continue
		}
		pos := [2]int{s.Row, s.Column}
		if other, ok := used[pos]; ok {
			violations = append(violations, Violation{RuleSeatDoubleAssigned,
				fmt.Sprintf("students %s and %s share row %d column %d", other, s.StudentID, s.Row, s.Column)})
		}
		used[pos] = s.StudentID
	}
	return violations
}

// sharedStudent returns one student present in both sorted rosters, or "".
func sharedStudent(a, b []string) string {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return a[i]
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return ""
}

package dto

import (
	"time"

	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
)

// Run statuses.
const (
	RunStatusPending   = "PENDING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// RunExamScheduleRequest configures one scheduling run. Unset optional fields fall back to
// the service defaults. The same shape is read from YAML run files by the CLI.
type RunExamScheduleRequest struct {
	StartDate              string         `json:"startDate" yaml:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate                string         `json:"endDate" yaml:"endDate" validate:"required,datetime=2006-01-02"`
	TimesOfDay             []string       `json:"timesOfDay" yaml:"timesOfDay" validate:"omitempty,dive,datetime=15:04"`
	DefaultDurationMinutes *int           `json:"defaultDurationMinutes" yaml:"defaultDurationMinutes" validate:"omitempty,min=1,max=1440"`
	DurationOverrides      map[string]int `json:"durationOverrides" yaml:"durationOverrides" validate:"omitempty,dive,keys,required,endkeys,min=1,max=1440"`
	MinSeparationMinutes   *int           `json:"minSeparationMinutes" yaml:"minSeparationMinutes" validate:"omitempty,min=0"`
	SkipWeekends           *bool          `json:"skipWeekends" yaml:"skipWeekends"`
	// ExcludedWeekdays uses ISO numbering: 1 is Monday, 7 is Sunday.
	ExcludedWeekdays       []int          `json:"excludedWeekdays" yaml:"excludedWeekdays" validate:"omitempty,dive,min=1,max=7"`
	ExcludedDates          []string       `json:"excludedDates" yaml:"excludedDates" validate:"omitempty,dive,datetime=2006-01-02"`
	EnforceNoSimultaneous  bool           `json:"enforceNoSimultaneous" yaml:"enforceNoSimultaneous"`
	MaxExamsPerGradePerDay *int           `json:"maxExamsPerGradePerDay" yaml:"maxExamsPerGradePerDay"`
	RoomPolicy             string         `json:"roomPolicy" yaml:"roomPolicy" validate:"omitempty,oneof=smallest_fit round_robin"`
	CourseIDs              []string       `json:"courseIds" yaml:"courseIds" validate:"omitempty,dive,required"`
	OrgUnit                string         `json:"orgUnit" yaml:"orgUnit"`
	DryRun                 bool           `json:"dryRun" yaml:"dryRun"`
}

// ScheduledExamView is one placement of a run.
type ScheduledExamView struct {
	ExamID          string `json:"examId,omitempty"`
	CourseID        string `json:"courseId"`
	CourseCode      string `json:"courseCode"`
	CourseName      string `json:"courseName"`
	Grade           int    `json:"grade"`
	RoomID          string `json:"roomId"`
	RoomCode        string `json:"roomCode"`
	RoomName        string `json:"roomName"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
	EnrolledCount   int    `json:"enrolledCount"`
	SeatsAssigned   int    `json:"seatsAssigned"`
}

// ScheduleFailureView is a course or exam that did not complete the run.
type ScheduleFailureView struct {
	CourseID   string `json:"courseId"`
	CourseCode string `json:"courseCode"`
	Reason     string `json:"reason"`
	ExamID     string `json:"examId,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// ScheduleRunStats summarises a run.
type ScheduleRunStats struct {
	Courses          int            `json:"courses"`
	Rooms            int            `json:"rooms"`
	EligibleDates    int            `json:"eligibleDates"`
	Placed           int            `json:"placed"`
	Failed           int            `json:"failed"`
	FailuresByReason map[string]int `json:"failuresByReason"`
	DurationMs       int64          `json:"durationMs"`
}

// ExamScheduleRunResponse is the stored and returned outcome of a run.
type ExamScheduleRunResponse struct {
	RunID       string                `json:"runId"`
	Status      string                `json:"status"`
	DryRun      bool                  `json:"dryRun"`
	Exams       []ScheduledExamView   `json:"exams"`
	Failures    []ScheduleFailureView `json:"failures"`
	Stats       ScheduleRunStats      `json:"stats"`
	Error       *appErrors.Error      `json:"error,omitempty"`
	SubmittedAt time.Time             `json:"submittedAt"`
	GeneratedAt *time.Time            `json:"generatedAt,omitempty"`
}

// ExamSeatView is one occupied seat.
type ExamSeatView struct {
	StudentID string `json:"studentId"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
}

// ExamSeatsResponse lists the seat map of an exam.
type ExamSeatsResponse struct {
	ExamID string         `json:"examId"`
	Seats  []ExamSeatView `json:"seats"`
}

// ExamScheduleRow is one line of the schedule export.
type ExamScheduleRow struct {
	ExamID          string `csv:"exam_id"`
	CourseID        string `csv:"course_id"`
	CourseCode      string `csv:"course_code"`
	CourseName      string `csv:"course_name"`
	Grade           int    `csv:"grade"`
	Date            string `csv:"date"`
	StartTime       string `csv:"start_time"`
	EndTime         string `csv:"end_time"`
	DurationMinutes int    `csv:"duration_minutes"`
	RoomID          string `csv:"room_id"`
	RoomCode        string `csv:"room_code"`
	RoomName        string `csv:"room_name"`
	EnrolledCount   int    `csv:"enrolled_count"`
	SeatsAssigned   int    `csv:"seats_assigned"`
}

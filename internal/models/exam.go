package models

import "time"

// Exam is a persisted placement produced by a scheduling run.
type Exam struct {
	ID              string    `db:"id" json:"id"`
	RunID           string    `db:"run_id" json:"run_id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	RoomID          string    `db:"room_id" json:"room_id"`
	ExamDate        time.Time `db:"exam_date" json:"exam_date"`
	StartTime       string    `db:"start_time" json:"start_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ExamSeat is one occupied seat of an exam.
type ExamSeat struct {
	ExamID     string `db:"exam_id" json:"exam_id"`
	StudentID  string `db:"student_id" json:"student_id"`
	SeatRow    int    `db:"seat_row" json:"seat_row"`
	SeatColumn int    `db:"seat_column" json:"seat_column"`
}

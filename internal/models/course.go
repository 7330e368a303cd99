package models

import "time"

// Course is a row of the courses table.
type Course struct {
	ID              string    `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	OrgUnit         string    `db:"org_unit" json:"org_unit"`
	Grade           int       `db:"grade" json:"grade"`
	DurationMinutes *int      `db:"duration_minutes" json:"duration_minutes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// CourseEnrollment links a student to a course.
type CourseEnrollment struct {
	CourseID  string `db:"course_id" json:"course_id"`
	StudentID string `db:"student_id" json:"student_id"`
}

package repository

import (
	"context"

	"github.com/noah-isme/exam-scheduler/internal/models"
	"github.com/noah-isme/exam-scheduler/internal/scheduler"
)

type courseReader interface {
	List(ctx context.Context, ids []string) ([]models.Course, error)
	ListEnrollments(ctx context.Context, courseIDs []string) ([]models.CourseEnrollment, error)
}

type roomReader interface {
	List(ctx context.Context, orgUnit string) ([]models.Room, error)
}

// RosterSource adapts the course and room tables to the scheduler's data source.
type RosterSource struct {
	courses courseReader
	rooms   roomReader
}

// NewRosterSource constructs the adapter.
func NewRosterSource(courses courseReader, rooms roomReader) *RosterSource {
	return &RosterSource{courses: courses, rooms: rooms}
}

// LoadCourses reads courses and attaches each one's enrolled students.
func (s *RosterSource) LoadCourses(ctx context.Context, ids []string) ([]scheduler.Course, error) {
	rows, err := s.courses.List(ctx, ids)
	if err != nil {
		return nil, err
	}
	courseIDs := make([]string, len(rows))
	for i, row := range rows {
		courseIDs[i] = row.ID
	}
	enrollments, err := s.courses.ListEnrollments(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	students := make(map[string][]string, len(rows))
	for _, e := range enrollments {
		students[e.CourseID] = append(students[e.CourseID], e.StudentID)
	}

	courses := make([]scheduler.Course, 0, len(rows))
	for _, row := range rows {
		course := scheduler.Course{
			ID:       row.ID,
			Code:     row.Code,
			Name:     row.Name,
			Grade:    row.Grade,
			Students: students[row.ID],
		}
		if row.DurationMinutes != nil {
			course.DurationMinutes = *row.DurationMinutes
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// LoadRooms reads rooms of the organisational unit, or all rooms when it is empty.
func (s *RosterSource) LoadRooms(ctx context.Context, orgUnit string) ([]scheduler.Room, error) {
	rows, err := s.rooms.List(ctx, orgUnit)
	if err != nil {
		return nil, err
	}
	rooms := make([]scheduler.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, scheduler.Room{
			ID:        row.ID,
			Code:      row.Code,
			Name:      row.Name,
			Capacity:  row.Capacity,
			Columns:   row.SeatColumns,
			Rows:      row.SeatRows,
			GroupSize: row.GroupSize,
		})
	}
	return rooms, nil
}

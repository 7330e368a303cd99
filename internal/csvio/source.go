package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/exam-scheduler/internal/scheduler"
)

// CourseRow is one line of the courses file.
type CourseRow struct {
	ID              string `csv:"id"`
	Code            string `csv:"code"`
	Name            string `csv:"name"`
	OrgUnit         string `csv:"org_unit"`
	Grade           int    `csv:"grade"`
	DurationMinutes int    `csv:"duration_minutes"`
}

// EnrollmentRow is one line of the enrollments file.
type EnrollmentRow struct {
	CourseID  string `csv:"course_id"`
	StudentID string `csv:"student_id"`
}

// RoomRow is one line of the rooms file.
type RoomRow struct {
	ID        string `csv:"id"`
	Code      string `csv:"code"`
	Name      string `csv:"name"`
	OrgUnit   string `csv:"org_unit"`
	Capacity  int    `csv:"capacity"`
	Columns   int    `csv:"columns"`
	Rows      int    `csv:"rows"`
	GroupSize int    `csv:"group_size"`
}

// Paths names the three input files.
type Paths struct {
	Courses     string
	Enrollments string
	Rooms       string
}

// Source serves scheduler input from CSV files. Files are read on every call.
type Source struct {
	paths     Paths
	delimiter rune
}

// NewSource builds a source; a zero delimiter means comma.
func NewSource(paths Paths, delimiter rune) *Source {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Source{paths: paths, delimiter: delimiter}
}

// LoadCourses reads courses and enrollments, keeping file order, limited to ids when given.
func (s *Source) LoadCourses(_ context.Context, ids []string) ([]scheduler.Course, error) {
	var rows []*CourseRow
	if err := s.readFile(s.paths.Courses, &rows); err != nil {
		return nil, err
	}
	var enrollments []*EnrollmentRow
	if err := s.readFile(s.paths.Enrollments, &enrollments); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	students := make(map[string][]string)
	for _, e := range enrollments {
		students[e.CourseID] = append(students[e.CourseID], e.StudentID)
	}

	courses := make([]scheduler.Course, 0, len(rows))
	for _, row := range rows {
		if len(wanted) > 0 && !wanted[row.ID] {
			continue
		}
		courses = append(courses, scheduler.Course{
			ID:              row.ID,
			Code:            row.Code,
			Name:            row.Name,
			Grade:           row.Grade,
			DurationMinutes: row.DurationMinutes,
			Students:        students[row.ID],
		})
	}
	return courses, nil
}

// LoadRooms reads rooms, limited to orgUnit when it is set.
func (s *Source) LoadRooms(_ context.Context, orgUnit string) ([]scheduler.Room, error) {
	var rows []*RoomRow
	if err := s.readFile(s.paths.Rooms, &rows); err != nil {
		return nil, err
	}
	rooms := make([]scheduler.Room, 0, len(rows))
	for _, row := range rows {
		if orgUnit != "" && row.OrgUnit != orgUnit {
			continue
		}
		rooms = append(rooms, scheduler.Room{
			ID:        row.ID,
			Code:      row.Code,
			Name:      row.Name,
			Capacity:  row.Capacity,
			Columns:   row.Columns,
			Rows:      row.Rows,
			GroupSize: row.GroupSize,
		})
	}
	return rooms, nil
}

func (s *Source) readFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	if err := s.decode(f, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (s *Source) decode(in io.Reader, out interface{}) error {
	r := csv.NewReader(in)
	r.Comma = s.delimiter
	r.TrimLeadingSpace = true
	if err := gocsv.UnmarshalCSV(r, out); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return err
	}
	return nil
}

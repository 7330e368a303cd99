package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

// CourseRepository reads courses and their enrolments.
type CourseRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// List returns courses ordered by id, restricted to ids when any are given.
func (r *CourseRepository) List(ctx context.Context, ids []string) ([]models.Course, error) {
	q := r.sb.Select("id", "code", "name", "org_unit", "grade", "duration_minutes", "created_at").
		From("courses").
		OrderBy("id ASC")
	if len(ids) > 0 {
		q = q.Where(squirrel.Eq{"id": ids})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list courses: %w", err)
	}

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListEnrollments returns the enrolments of the given courses.
func (r *CourseRepository) ListEnrollments(ctx context.Context, courseIDs []string) ([]models.CourseEnrollment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	query, args, err := r.sb.Select("course_id", "student_id").
		From("course_enrollments").
		Where(squirrel.Eq{"course_id": courseIDs}).
		OrderBy("course_id ASC", "student_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list enrollments: %w", err)
	}

	var enrollments []models.CourseEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

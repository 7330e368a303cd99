package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

// ExamRepository stores scheduled exams and their seat maps.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// InsertExam stores one placement, assigning its id when empty.
func (r *ExamRepository) InsertExam(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exams (id, run_id, course_id, room_id, exam_date, start_time, duration_minutes, created_at)
VALUES (:id, :run_id, :course_id, :room_id, :exam_date, :start_time, :duration_minutes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}

// FindExam returns one exam; sql.ErrNoRows is wrapped when it does not exist.
func (r *ExamRepository) FindExam(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, run_id, course_id, room_id, exam_date, start_time, duration_minutes, created_at FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, fmt.Errorf("find exam: %w", err)
	}
	return &exam, nil
}

// ReplaceSeating swaps the seat map of an exam in one transaction.
func (r *ExamRepository) ReplaceSeating(ctx context.Context, examID string, seats []models.ExamSeat) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace seating: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM exam_seats WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("clear exam seats: %w", err)
	}

	for i := range seats {
		seat := seats[i]
		seat.ExamID = examID
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO exam_seats (exam_id, student_id, seat_row, seat_column) VALUES (:exam_id, :student_id, :seat_row, :seat_column)`, &seat); err != nil {
			return fmt.Errorf("insert exam seat: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace seating: %w", err)
	}
	return nil
}

// ListSeats returns the seat map of an exam in row-major order.
func (r *ExamRepository) ListSeats(ctx context.Context, examID string) ([]models.ExamSeat, error) {
	const query = `SELECT exam_id, student_id, seat_row, seat_column FROM exam_seats WHERE exam_id = $1 ORDER BY seat_row ASC, seat_column ASC`
	var seats []models.ExamSeat
	if err := r.db.SelectContext(ctx, &seats, query, examID); err != nil {
		return nil, fmt.Errorf("list exam seats: %w", err)
	}
	return seats, nil
}

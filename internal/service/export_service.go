package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/pkg/export"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(rows interface{}) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	ResultTTL time.Duration
}

// ExportResult describes a rendered schedule file.
type ExportResult struct {
	Filename     string
	RelativePath string
	ContentType  string
	Data         []byte
}

// ExportService renders run results as CSV and keeps a copy in storage.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. A nil storage renders without persisting.
func NewExportService(storage fileStorage, cfg ExportConfig, logger *zap.Logger, csv csvRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVRenderer(',')
	}
	return &ExportService{storage: storage, csv: csv, logger: logger, cfg: cfg}
}

// Rows flattens the scheduled exams of a run into export rows.
func (s *ExportService) Rows(run *dto.ExamScheduleRunResponse) []dto.ExamScheduleRow {
	rows := make([]dto.ExamScheduleRow, 0, len(run.Exams))
	for _, exam := range run.Exams {
		rows = append(rows, dto.ExamScheduleRow{
			ExamID:          exam.ExamID,
			CourseID:        exam.CourseID,
			CourseCode:      exam.CourseCode,
			CourseName:      exam.CourseName,
			Grade:           exam.Grade,
			Date:            exam.Date,
			StartTime:       exam.StartTime,
			EndTime:         exam.EndTime,
			DurationMinutes: exam.DurationMinutes,
			RoomID:          exam.RoomID,
			RoomCode:        exam.RoomCode,
			RoomName:        exam.RoomName,
			EnrolledCount:   exam.EnrolledCount,
			SeatsAssigned:   exam.SeatsAssigned,
		})
	}
	return rows
}

// Render encodes the run's schedule without touching storage.
func (s *ExportService) Render(run *dto.ExamScheduleRunResponse) ([]byte, error) {
	return s.csv.Render(s.Rows(run))
}

// Export renders the run and stores it under runs/<run id>.csv.
func (s *ExportService) Export(ctx context.Context, run *dto.ExamScheduleRunResponse) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.Render(run)
	if err != nil {
		return nil, fmt.Errorf("render schedule %s: %w", run.RunID, err)
	}
	result := &ExportResult{
		Filename:    fmt.Sprintf("exam-schedule-%s.csv", run.RunID),
		ContentType: "text/csv",
		Data:        data,
	}
	if s.storage == nil {
		return result, nil
	}
	rel, err := s.storage.Save(fmt.Sprintf("runs/%s.csv", run.RunID), data)
	if err != nil {
		return nil, fmt.Errorf("store schedule %s: %w", run.RunID, err)
	}
	result.RelativePath = rel
	s.logger.Info("schedule exported", zap.String("run_id", run.RunID), zap.String("path", rel), zap.Int("rows", len(run.Exams)))
	return result, nil
}

// Cleanup removes stored exports older than the configured TTL.
func (s *ExportService) Cleanup() {
	if s.storage == nil {
		return
	}
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("export cleanup", zap.Int("removed", len(removed)))
	}
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/pkg/export"
	"github.com/noah-isme/exam-scheduler/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewExportService(store, ExportConfig{ResultTTL: time.Hour}, zap.NewNop(), export.NewCSVRenderer(','))
	return svc, dir
}

func sampleRun() *dto.ExamScheduleRunResponse {
	return &dto.ExamScheduleRunResponse{
		RunID:  "run-1",
		Status: dto.RunStatusCompleted,
		Exams: []dto.ScheduledExamView{
			{
				ExamID: "exam-1", CourseID: "c-math", CourseCode: "MATH", CourseName: "Mathematics", Grade: 1,
				RoomID: "r-1", RoomCode: "R1", RoomName: "Room 1", Date: "2024-06-03", StartTime: "09:00",
				EndTime: "10:15", DurationMinutes: 75, EnrolledCount: 4, SeatsAssigned: 4,
			},
		},
	}
}

func TestExportServiceWritesCSV(t *testing.T) {
	svc, dir := newExportServiceForTest(t)

	result, err := svc.Export(context.Background(), sampleRun())
	require.NoError(t, err)

	assert.Equal(t, "exam-schedule-run-1.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "runs/run-1.csv", result.RelativePath)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "exam_id,course_id,course_code"))
	assert.Equal(t, "exam-1,c-math,MATH,Mathematics,1,2024-06-03,09:00,10:15,75,r-1,R1,Room 1,4,4", lines[1])

	onDisk, err := os.ReadFile(filepath.Join(dir, "runs", "run-1.csv"))
	require.NoError(t, err)
	assert.Equal(t, result.Data, onDisk)
}

func TestExportServiceWithoutStorage(t *testing.T) {
	svc := NewExportService(nil, ExportConfig{}, nil, nil)
	result, err := svc.Export(context.Background(), sampleRun())
	require.NoError(t, err)
	assert.Empty(t, result.RelativePath)
	assert.NotEmpty(t, result.Data)
	svc.Cleanup()
}

func TestExportServiceCleanup(t *testing.T) {
	svc, dir := newExportServiceForTest(t)
	_, err := svc.Export(context.Background(), sampleRun())
	require.NoError(t, err)

	path := filepath.Join(dir, "runs", "run-1.csv")
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	svc.Cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

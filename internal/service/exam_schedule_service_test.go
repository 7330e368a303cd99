package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	"github.com/noah-isme/exam-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
	"github.com/noah-isme/exam-scheduler/pkg/jobs"
)

type rosterSourceStub struct {
	courses   []scheduler.Course
	rooms     []scheduler.Room
	err       error
	lastIDs   []string
	lastUnit  string
	loadCalls int
}

func (s *rosterSourceStub) LoadCourses(ctx context.Context, ids []string) ([]scheduler.Course, error) {
	s.loadCalls++
	s.lastIDs = ids
	if s.err != nil {
		return nil, s.err
	}
	return s.courses, nil
}

func (s *rosterSourceStub) LoadRooms(ctx context.Context, orgUnit string) ([]scheduler.Room, error) {
	s.lastUnit = orgUnit
	return s.rooms, nil
}

type examWriterStub struct {
	mu         sync.Mutex
	exams      []models.Exam
	seating    map[string][]models.ExamSeat
	insertErr  map[string]error
	seatingErr error
	seq        int
}

func (s *examWriterStub) InsertExam(ctx context.Context, exam *models.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErr[exam.CourseID]; err != nil {
		return err
	}
	s.seq++
	exam.ID = fmt.Sprintf("exam-%d", s.seq)
	s.exams = append(s.exams, *exam)
	return nil
}

func (s *examWriterStub) ReplaceSeating(ctx context.Context, examID string, seats []models.ExamSeat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seatingErr != nil {
		return s.seatingErr
	}
	if s.seating == nil {
		s.seating = make(map[string][]models.ExamSeat)
	}
	s.seating[examID] = seats
	return nil
}

type examSeatReaderStub struct {
	exam  *models.Exam
	seats []models.ExamSeat
	err   error
}

func (s *examSeatReaderStub) FindExam(ctx context.Context, id string) (*models.Exam, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.exam, nil
}

func (s *examSeatReaderStub) ListSeats(ctx context.Context, examID string) ([]models.ExamSeat, error) {
	return s.seats, nil
}

type runQueueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *runQueueStub) Enqueue(job jobs.Job) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.jobs = append(q.jobs, job)
	return job.ID, nil
}

type exporterStub struct {
	calls int
}

func (e *exporterStub) Export(ctx context.Context, run *dto.ExamScheduleRunResponse) (*ExportResult, error) {
	e.calls++
	return &ExportResult{Filename: run.RunID + ".csv", ContentType: "text/csv", Data: []byte("exam_id\n")}, nil
}

type examScheduleFixture struct {
	svc      *ExamScheduleService
	source   *rosterSourceStub
	writer   *examWriterStub
	reader   *examSeatReaderStub
	queue    *runQueueStub
	exporter *exporterStub
	metrics  *MetricsService
}

func newExamScheduleFixture(t *testing.T) *examScheduleFixture {
	t.Helper()
	source := &rosterSourceStub{
		courses: []scheduler.Course{
			{ID: "c-math", Code: "MATH", Name: "Mathematics", Grade: 1, Students: students("m", 4)},
			{ID: "c-bio", Code: "BIO", Name: "Biology", Grade: 1, Students: students("b", 3)},
		},
		rooms: []scheduler.Room{
			{ID: "r-1", Code: "R1", Name: "Room 1", Capacity: 10, Columns: 4, Rows: 4, GroupSize: 1},
		},
	}
	writer := &examWriterStub{}
	reader := &examSeatReaderStub{}
	queue := &runQueueStub{}
	exporter := &exporterStub{}
	metrics := NewMetricsService()
	cfg := ExamScheduleConfig{
		TimesOfDay:             []string{"09:00", "13:30"},
		DefaultDurationMinutes: 75,
		MinSeparationMinutes:   15,
		SkipWeekends:           true,
		MaxExamsPerGradePerDay: 2,
		RoomPolicy:             "smallest_fit",
		RunTimeout:             time.Minute,
	}
	svc := NewExamScheduleService(source, writer, reader, newMemoryRunStore(time.Hour), exporter, nil, metrics, zap.NewNop(), cfg)
	svc.AttachQueue(queue)
	return &examScheduleFixture{svc: svc, source: source, writer: writer, reader: reader, queue: queue, exporter: exporter, metrics: metrics}
}

func students(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return out
}

func baseRequest() dto.RunExamScheduleRequest {
	return dto.RunExamScheduleRequest{StartDate: "2024-06-03", EndDate: "2024-06-07"}
}

func requireAppError(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.Status)
}

func TestExamScheduleServiceRunPersistsExamsAndSeats(t *testing.T) {
	fx := newExamScheduleFixture(t)

	run, err := fx.svc.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, dto.RunStatusCompleted, run.Status)
	assert.False(t, run.DryRun)
	require.Len(t, run.Exams, 2)
	assert.Empty(t, run.Failures)

	first := run.Exams[0]
	assert.Equal(t, "c-math", first.CourseID)
	assert.Equal(t, "2024-06-03", first.Date)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "10:15", first.EndTime)
	assert.Equal(t, "exam-1", first.ExamID)
	assert.Equal(t, 4, first.SeatsAssigned)

	second := run.Exams[1]
	assert.Equal(t, "13:30", second.StartTime)
	assert.Equal(t, "exam-2", second.ExamID)

	require.Len(t, fx.writer.exams, 2)
	assert.Equal(t, run.RunID, fx.writer.exams[0].RunID)
	assert.Equal(t, "09:00", fx.writer.exams[0].StartTime)
	require.Len(t, fx.writer.seating["exam-1"], 4)
	assert.Equal(t, models.ExamSeat{ExamID: "exam-1", StudentID: "m00", SeatRow: 0, SeatColumn: 0}, fx.writer.seating["exam-1"][0])

	assert.Equal(t, 2, run.Stats.Courses)
	assert.Equal(t, 1, run.Stats.Rooms)
	assert.Equal(t, 5, run.Stats.EligibleDates)
	assert.Equal(t, 2, run.Stats.Placed)

	stored, err := fx.svc.Get(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, stored.RunID)

	snapshot := fx.metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RunsTotal)
	assert.Equal(t, uint64(2), snapshot.ExamsPlaced)
	assert.Equal(t, uint64(4), snapshot.DBQueryCount)
}

func TestExamScheduleServiceDryRunSkipsPersistence(t *testing.T) {
	fx := newExamScheduleFixture(t)
	req := baseRequest()
	req.DryRun = true

	run, err := fx.svc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, run.DryRun)
	require.Len(t, run.Exams, 2)
	assert.Empty(t, run.Exams[0].ExamID)
	assert.Equal(t, 4, run.Exams[0].SeatsAssigned)
	assert.Empty(t, fx.writer.exams)
	assert.Empty(t, fx.writer.seating)
}

func TestExamScheduleServiceInsertFailureBecomesFailureEntry(t *testing.T) {
	fx := newExamScheduleFixture(t)
	fx.writer.insertErr = map[string]error{"c-bio": errors.New("unique violation")}

	run, err := fx.svc.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	require.Len(t, run.Exams, 2, "a persistence failure never removes the placement")
	assert.Empty(t, run.Exams[1].ExamID)
	assert.Zero(t, run.Exams[1].SeatsAssigned)
	require.Len(t, run.Failures, 1)
	assert.Equal(t, "c-bio", run.Failures[0].CourseID)
	assert.Equal(t, string(scheduler.ReasonPersistenceError), run.Failures[0].Reason)
	assert.Contains(t, run.Failures[0].Detail, "unique violation")
	assert.Len(t, fx.writer.seating, 1)
	assert.Equal(t, 1, run.Stats.FailuresByReason[string(scheduler.ReasonPersistenceError)])
}

func TestExamScheduleServiceSeatingFailures(t *testing.T) {
	t.Run("grid too small", func(t *testing.T) {
		fx := newExamScheduleFixture(t)
		fx.source.courses = []scheduler.Course{{ID: "c-big", Code: "BIG", Grade: 2, Students: students("s", 25)}}
		fx.source.rooms = []scheduler.Room{{ID: "r-a1", Code: "A1", Capacity: 30, Columns: 6, Rows: 5, GroupSize: 3}}

		run, err := fx.svc.Run(context.Background(), baseRequest())
		require.NoError(t, err)

		require.Len(t, run.Exams, 1)
		assert.Equal(t, "exam-1", run.Exams[0].ExamID)
		require.Len(t, run.Failures, 1)
		assert.Equal(t, string(scheduler.ReasonSeatCapacityExceeded), run.Failures[0].Reason)
		assert.Equal(t, "exam-1", run.Failures[0].ExamID)
		assert.Empty(t, fx.writer.seating)
	})

	t.Run("seat write fails", func(t *testing.T) {
		fx := newExamScheduleFixture(t)
		fx.writer.seatingErr = errors.New("connection reset")

		run, err := fx.svc.Run(context.Background(), baseRequest())
		require.NoError(t, err)

		require.Len(t, run.Failures, 2)
		for _, f := range run.Failures {
			assert.Equal(t, string(scheduler.ReasonPersistenceError), f.Reason)
			assert.NotEmpty(t, f.ExamID)
		}
	})
}

func TestExamScheduleServiceCourseFailuresAreReported(t *testing.T) {
	fx := newExamScheduleFixture(t)
	fx.source.courses = append(fx.source.courses, scheduler.Course{ID: "c-huge", Code: "HUGE", Grade: 1, Students: students("h", 11)})

	run, err := fx.svc.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	require.Len(t, run.Failures, 1)
	assert.Equal(t, "HUGE", run.Failures[0].CourseCode)
	assert.Equal(t, string(scheduler.ReasonCapacityExceeded), run.Failures[0].Reason)
	assert.Len(t, run.Exams, 2)
}

func TestExamScheduleServiceFatalErrors(t *testing.T) {
	t.Run("no rooms", func(t *testing.T) {
		fx := newExamScheduleFixture(t)
		fx.source.rooms = nil
		_, err := fx.svc.Run(context.Background(), baseRequest())
		requireAppError(t, err, "NO_ROOMS_CONFIGURED", http.StatusUnprocessableEntity)
		assert.Empty(t, fx.writer.exams)
	})

	t.Run("no eligible dates", func(t *testing.T) {
		fx := newExamScheduleFixture(t)
		req := dto.RunExamScheduleRequest{StartDate: "2024-06-08", EndDate: "2024-06-09"}
		_, err := fx.svc.Run(context.Background(), req)
		requireAppError(t, err, "NO_ELIGIBLE_DATES", http.StatusUnprocessableEntity)
	})

	t.Run("data unavailable", func(t *testing.T) {
		fx := newExamScheduleFixture(t)
		fx.source.err = errors.New("dial tcp: refused")
		_, err := fx.svc.Run(context.Background(), baseRequest())
		requireAppError(t, err, "DATA_UNAVAILABLE", http.StatusServiceUnavailable)
		assert.ErrorIs(t, err, scheduler.ErrDataUnavailable)
	})
}

func TestExamScheduleServiceValidation(t *testing.T) {
	fx := newExamScheduleFixture(t)
	zero := 0

	cases := map[string]dto.RunExamScheduleRequest{
		"missing start":    {EndDate: "2024-06-07"},
		"bad date":         {StartDate: "2024/06/03", EndDate: "2024-06-07"},
		"bad time":         {StartDate: "2024-06-03", EndDate: "2024-06-07", TimesOfDay: []string{"25:00"}},
		"zero duration":    {StartDate: "2024-06-03", EndDate: "2024-06-07", DefaultDurationMinutes: &zero},
		"unknown policy":   {StartDate: "2024-06-03", EndDate: "2024-06-07", RoomPolicy: "largest"},
		"weekday eight":    {StartDate: "2024-06-03", EndDate: "2024-06-07", ExcludedWeekdays: []int{8}},
		"override of zero": {StartDate: "2024-06-03", EndDate: "2024-06-07", DurationOverrides: map[string]int{"c-math": 0}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fx.svc.Run(context.Background(), req)
			requireAppError(t, err, "VALIDATION_ERROR", http.StatusBadRequest)
		})
	}
	assert.Zero(t, fx.source.loadCalls)
}

func TestExamScheduleServiceRequestOverridesDefaults(t *testing.T) {
	fx := newExamScheduleFixture(t)
	duration := 120
	skip := false
	req := dto.RunExamScheduleRequest{
		StartDate:              "2024-06-01",
		EndDate:                "2024-06-07",
		TimesOfDay:             []string{"08:00"},
		DefaultDurationMinutes: &duration,
		SkipWeekends:           &skip,
		ExcludedWeekdays:       []int{7},
		ExcludedDates:          []string{"2024-06-01"},
		CourseIDs:              []string{"c-math", "c-bio"},
		OrgUnit:                "science",
	}

	run, err := fx.svc.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, run.Exams, 2)
	assert.Equal(t, "2024-06-03", run.Exams[0].Date, "saturday excluded by date, sunday by weekday")
	assert.Equal(t, "08:00", run.Exams[0].StartTime)
	assert.Equal(t, "10:00", run.Exams[0].EndTime)
	assert.Equal(t, "2024-06-04", run.Exams[1].Date, "one slot per day and one room")
	assert.Equal(t, []string{"c-math", "c-bio"}, fx.source.lastIDs)
	assert.Equal(t, "science", fx.source.lastUnit)
}

func TestExamScheduleServiceSubmitAndHandleJob(t *testing.T) {
	fx := newExamScheduleFixture(t)
	ctx := context.Background()

	pending, err := fx.svc.Submit(ctx, baseRequest())
	require.NoError(t, err)
	assert.Equal(t, dto.RunStatusPending, pending.Status)
	require.Len(t, fx.queue.jobs, 1)
	assert.Equal(t, JobTypeExamScheduleRun, fx.queue.jobs[0].Type)

	stored, err := fx.svc.Get(ctx, pending.RunID)
	require.NoError(t, err)
	assert.Equal(t, dto.RunStatusPending, stored.Status)

	_, err = fx.svc.Export(ctx, pending.RunID)
	requireAppError(t, err, "RUN_PENDING", http.StatusConflict)

	require.NoError(t, fx.svc.HandleJob(ctx, fx.queue.jobs[0]))

	done, err := fx.svc.Get(ctx, pending.RunID)
	require.NoError(t, err)
	assert.Equal(t, dto.RunStatusCompleted, done.Status)
	assert.Len(t, done.Exams, 2)
	assert.Equal(t, pending.SubmittedAt, done.SubmittedAt)

	result, err := fx.svc.Export(ctx, pending.RunID)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, 1, fx.exporter.calls)
}

func TestExamScheduleServiceHandleJobStoresFatalFailure(t *testing.T) {
	fx := newExamScheduleFixture(t)
	ctx := context.Background()
	pending, err := fx.svc.Submit(ctx, baseRequest())
	require.NoError(t, err)

	fx.source.rooms = nil
	require.NoError(t, fx.svc.HandleJob(ctx, fx.queue.jobs[0]))

	failed, err := fx.svc.Get(ctx, pending.RunID)
	require.NoError(t, err)
	assert.Equal(t, dto.RunStatusFailed, failed.Status)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "NO_ROOMS_CONFIGURED", failed.Error.Code)

	_, err = fx.svc.Export(ctx, pending.RunID)
	requireAppError(t, err, "CONFLICT", http.StatusConflict)

	fx.source.err = errors.New("timeout")
	err = fx.svc.HandleJob(ctx, fx.queue.jobs[0])
	assert.ErrorIs(t, err, scheduler.ErrDataUnavailable, "unavailable data is handed back for retry")
}

func TestExamScheduleServiceSubmitRejectsInvalidRequest(t *testing.T) {
	fx := newExamScheduleFixture(t)
	_, err := fx.svc.Submit(context.Background(), dto.RunExamScheduleRequest{StartDate: "nope"})
	requireAppError(t, err, "VALIDATION_ERROR", http.StatusBadRequest)
	assert.Empty(t, fx.queue.jobs)

	fx.queue.err = jobs.ErrQueueFull
	_, err = fx.svc.Submit(context.Background(), baseRequest())
	requireAppError(t, err, "INTERNAL_ERROR", http.StatusInternalServerError)
}

func TestExamScheduleServiceGetUnknownRun(t *testing.T) {
	fx := newExamScheduleFixture(t)
	_, err := fx.svc.Get(context.Background(), "missing")
	requireAppError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestExamScheduleServiceSeats(t *testing.T) {
	fx := newExamScheduleFixture(t)
	fx.reader.exam = &models.Exam{ID: "exam-1"}
	fx.reader.seats = []models.ExamSeat{{ExamID: "exam-1", StudentID: "s1", SeatRow: 0, SeatColumn: 2}}

	resp, err := fx.svc.Seats(context.Background(), "exam-1")
	require.NoError(t, err)
	assert.Equal(t, []dto.ExamSeatView{{StudentID: "s1", Row: 0, Column: 2}}, resp.Seats)

	fx.reader.err = fmt.Errorf("find exam: %w", sql.ErrNoRows)
	_, err = fx.svc.Seats(context.Background(), "exam-9")
	requireAppError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestIsoWeekday(t *testing.T) {
	assert.Equal(t, time.Monday, isoWeekday(1))
	assert.Equal(t, time.Saturday, isoWeekday(6))
	assert.Equal(t, time.Sunday, isoWeekday(7))
}

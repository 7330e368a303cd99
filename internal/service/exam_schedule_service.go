package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/models"
	"github.com/noah-isme/exam-scheduler/internal/scheduler"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
	"github.com/noah-isme/exam-scheduler/pkg/jobs"
)

// JobTypeExamScheduleRun identifies queued scheduling runs.
const JobTypeExamScheduleRun = "exam_schedule_run"

const dateLayout = "2006-01-02"

type examWriter interface {
	InsertExam(ctx context.Context, exam *models.Exam) error
	ReplaceSeating(ctx context.Context, examID string, seats []models.ExamSeat) error
}

type examSeatReader interface {
	FindExam(ctx context.Context, id string) (*models.Exam, error)
	ListSeats(ctx context.Context, examID string) ([]models.ExamSeat, error)
}

type runQueue interface {
	Enqueue(job jobs.Job) (string, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, run *dto.ExamScheduleRunResponse) (*ExportResult, error)
}

// ExamScheduleConfig holds defaults merged under every request.
type ExamScheduleConfig struct {
	TimesOfDay             []string
	DefaultDurationMinutes int
	MinSeparationMinutes   int
	SkipWeekends           bool
	MaxExamsPerGradePerDay int
	RoomPolicy             string
	RunTimeout             time.Duration
}

// ExamScheduleService runs the scheduling engine and persists its placements and seat maps.
type ExamScheduleService struct {
	source    scheduler.DataSource
	writer    examWriter
	seats     examSeatReader
	store     RunStore
	exporter  scheduleExporter
	queue     runQueue
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExamScheduleConfig
	now       func() time.Time
}

type runJobPayload struct {
	RunID       string
	Request     dto.RunExamScheduleRequest
	SubmittedAt time.Time
}

// NewExamScheduleService wires the scheduling service. A nil writer forces every run to dry-run.
func NewExamScheduleService(
	source scheduler.DataSource,
	writer examWriter,
	seats examSeatReader,
	store RunStore,
	exporter scheduleExporter,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg ExamScheduleConfig,
) *ExamScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = newMemoryRunStore(24 * time.Hour)
	}
	if len(cfg.TimesOfDay) == 0 {
		cfg.TimesOfDay = []string{"09:00", "13:30", "17:00"}
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = 75
	}
	if cfg.RoomPolicy == "" {
		cfg.RoomPolicy = string(scheduler.RoomPolicySmallestFit)
	}
	return &ExamScheduleService{
		source:    source,
		writer:    writer,
		seats:     seats,
		store:     store,
		exporter:  exporter,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// AttachQueue enables asynchronous submissions.
func (s *ExamScheduleService) AttachQueue(queue runQueue) {
	s.queue = queue
}

// Run executes a scheduling run synchronously and stores its response.
func (s *ExamScheduleService) Run(ctx context.Context, req dto.RunExamScheduleRequest) (*dto.ExamScheduleRunResponse, error) {
	opts, filter, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	submitted := s.now().UTC()
	run, err := s.execute(ctx, uuid.NewString(), submitted, req, opts, filter)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, run); err != nil {
		s.logger.Warn("failed to store run response", zap.String("run_id", run.RunID), zap.Error(err))
	}
	return run, nil
}

// Submit validates the request and queues it, returning the pending run.
func (s *ExamScheduleService) Submit(ctx context.Context, req dto.RunExamScheduleRequest) (*dto.ExamScheduleRunResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "asynchronous runs are not enabled")
	}
	if _, _, err := s.prepare(req); err != nil {
		return nil, err
	}
	run := &dto.ExamScheduleRunResponse{
		RunID:       uuid.NewString(),
		Status:      dto.RunStatusPending,
		DryRun:      req.DryRun || s.writer == nil,
		Exams:       []dto.ScheduledExamView{},
		Failures:    []dto.ScheduleFailureView{},
		SubmittedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register run")
	}
	payload := runJobPayload{RunID: run.RunID, Request: req, SubmittedAt: run.SubmittedAt}
	if _, err := s.queue.Enqueue(jobs.Job{ID: run.RunID, Type: JobTypeExamScheduleRun, Payload: payload}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue run")
	}
	s.logger.Info("exam schedule run queued", zap.String("run_id", run.RunID))
	return run, nil
}

// HandleJob executes a queued run. Fatal errors are stored on the run; only unavailable
// data is returned so the queue may retry.
func (s *ExamScheduleService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(runJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	opts, filter, err := s.prepare(payload.Request)
	if err == nil {
		var run *dto.ExamScheduleRunResponse
		run, err = s.execute(ctx, payload.RunID, payload.SubmittedAt, payload.Request, opts, filter)
		if err == nil {
			return s.store.Save(ctx, run)
		}
	}

	failed := &dto.ExamScheduleRunResponse{
		RunID:       payload.RunID,
		Status:      dto.RunStatusFailed,
		DryRun:      payload.Request.DryRun || s.writer == nil,
		Exams:       []dto.ScheduledExamView{},
		Failures:    []dto.ScheduleFailureView{},
		Error:       appErrors.FromError(err),
		SubmittedAt: payload.SubmittedAt,
	}
	finished := s.now().UTC()
	failed.GeneratedAt = &finished
	if saveErr := s.store.Save(ctx, failed); saveErr != nil {
		s.logger.Error("failed to store failed run", zap.String("run_id", payload.RunID), zap.Error(saveErr))
	}
	if errors.Is(err, scheduler.ErrDataUnavailable) {
		return err
	}
	return nil
}

// Get returns a stored run.
func (s *ExamScheduleService) Get(ctx context.Context, runID string) (*dto.ExamScheduleRunResponse, error) {
	run, found, err := s.store.Get(ctx, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run")
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "run not found")
	}
	return run, nil
}

// Export renders the schedule of a completed run.
func (s *ExamScheduleService) Export(ctx context.Context, runID string) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "exports are not configured")
	}
	run, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	switch run.Status {
	case dto.RunStatusPending:
		return nil, appErrors.Clone(appErrors.ErrRunPending, "run is still pending")
	case dto.RunStatusFailed:
		return nil, appErrors.Clone(appErrors.ErrConflict, "run failed and has no schedule")
	}
	result, err := s.exporter.Export(ctx, run)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export schedule")
	}
	return result, nil
}

// Seats returns the persisted seat map of an exam.
func (s *ExamScheduleService) Seats(ctx context.Context, examID string) (*dto.ExamSeatsResponse, error) {
	if s.seats == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	if _, err := s.seats.FindExam(ctx, examID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	rows, err := s.seats.ListSeats(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seats")
	}
	resp := &dto.ExamSeatsResponse{ExamID: examID, Seats: make([]dto.ExamSeatView, 0, len(rows))}
	for _, row := range rows {
		resp.Seats = append(resp.Seats, dto.ExamSeatView{StudentID: row.StudentID, Row: row.SeatRow, Column: row.SeatColumn})
	}
	return resp, nil
}

func (s *ExamScheduleService) prepare(req dto.RunExamScheduleRequest) (scheduler.Options, scheduler.RosterFilter, error) {
	if err := s.validator.Struct(req); err != nil {
		return scheduler.Options{}, scheduler.RosterFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling request")
	}
	opts, err := s.buildOptions(req)
	if err != nil {
		return scheduler.Options{}, scheduler.RosterFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return opts, scheduler.RosterFilter{CourseIDs: req.CourseIDs, OrgUnit: req.OrgUnit}, nil
}

func (s *ExamScheduleService) buildOptions(req dto.RunExamScheduleRequest) (scheduler.Options, error) {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return scheduler.Options{}, fmt.Errorf("invalid startDate: %w", err)
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return scheduler.Options{}, fmt.Errorf("invalid endDate: %w", err)
	}

	rawTimes := req.TimesOfDay
	if len(rawTimes) == 0 {
		rawTimes = s.cfg.TimesOfDay
	}
	times := make([]scheduler.TimeOfDay, 0, len(rawTimes))
	for _, raw := range rawTimes {
		tod, err := scheduler.ParseTimeOfDay(raw)
		if err != nil {
			return scheduler.Options{}, err
		}
		times = append(times, tod)
	}

	opts := scheduler.Options{
		StartDate:              start,
		EndDate:                end,
		TimesOfDay:             times,
		DefaultDurationMinutes: s.cfg.DefaultDurationMinutes,
		DurationOverrides:      req.DurationOverrides,
		MinSeparationMinutes:   s.cfg.MinSeparationMinutes,
		SkipWeekends:           s.cfg.SkipWeekends,
		NoSimultaneous:         req.EnforceNoSimultaneous,
		MaxExamsPerGradePerDay: s.cfg.MaxExamsPerGradePerDay,
		RoomPolicy:             scheduler.RoomPolicy(s.cfg.RoomPolicy),
	}
	if req.DefaultDurationMinutes != nil {
		opts.DefaultDurationMinutes = *req.DefaultDurationMinutes
	}
	if req.MinSeparationMinutes != nil {
		opts.MinSeparationMinutes = *req.MinSeparationMinutes
	}
	if req.SkipWeekends != nil {
		opts.SkipWeekends = *req.SkipWeekends
	}
	if req.MaxExamsPerGradePerDay != nil {
		opts.MaxExamsPerGradePerDay = *req.MaxExamsPerGradePerDay
	}
	if req.RoomPolicy != "" {
		opts.RoomPolicy = scheduler.RoomPolicy(req.RoomPolicy)
	}
	for _, iso := range req.ExcludedWeekdays {
		opts.ExcludedWeekdays = append(opts.ExcludedWeekdays, isoWeekday(iso))
	}
	for _, raw := range req.ExcludedDates {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return scheduler.Options{}, fmt.Errorf("invalid excluded date %q: %w", raw, err)
		}
		opts.ExcludedDates = append(opts.ExcludedDates, d)
	}
	return opts, nil
}

func (s *ExamScheduleService) execute(
	ctx context.Context,
	runID string,
	submitted time.Time,
	req dto.RunExamScheduleRequest,
	opts scheduler.Options,
	filter scheduler.RosterFilter,
) (*dto.ExamScheduleRunResponse, error) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}
	started := time.Now()
	logger := s.logger.With(zap.String("run_id", runID))
	dryRun := req.DryRun || s.writer == nil

	roster, err := scheduler.LoadRoster(ctx, s.source, filter)
	if err != nil {
		s.observeRun(dto.RunStatusFailed, started, nil)
		return nil, mapSchedulingError(err)
	}
	if err := ctx.Err(); err != nil {
		s.observeRun(dto.RunStatusFailed, started, nil)
		return nil, mapSchedulingError(err)
	}

	engine, err := scheduler.NewEngine(opts, logger)
	if err != nil {
		s.observeRun(dto.RunStatusFailed, started, nil)
		return nil, mapSchedulingError(err)
	}
	report, err := engine.Run(roster)
	if err != nil {
		s.observeRun(dto.RunStatusFailed, started, nil)
		return nil, mapSchedulingError(err)
	}
	if err := ctx.Err(); err != nil {
		s.observeRun(dto.RunStatusFailed, started, nil)
		return nil, mapSchedulingError(err)
	}

	views := make([]dto.ScheduledExamView, 0, len(report.Exams))
	for _, exam := range report.Exams {
		views = append(views, s.finalizeExam(ctx, logger, runID, dryRun, exam, report))
	}

	failures := make([]dto.ScheduleFailureView, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, dto.ScheduleFailureView{
			CourseID:   f.Course.ID,
			CourseCode: f.Course.Code,
			Reason:     string(f.Reason),
			ExamID:     f.ExamID,
			Detail:     f.Detail,
		})
	}

	counts := make(map[string]int)
	for reason, n := range report.FailureCounts() {
		counts[string(reason)] = n
	}
	generated := s.now().UTC()
	run := &dto.ExamScheduleRunResponse{
		RunID:    runID,
		Status:   dto.RunStatusCompleted,
		DryRun:   dryRun,
		Exams:    views,
		Failures: failures,
		Stats: dto.ScheduleRunStats{
			Courses:          len(roster.Courses),
			Rooms:            len(roster.Rooms),
			EligibleDates:    len(opts.Calendar().Dates()),
			Placed:           report.Placed(),
			Failed:           report.Failed(),
			FailuresByReason: counts,
			DurationMs:       time.Since(started).Milliseconds(),
		},
		SubmittedAt: submitted,
		GeneratedAt: &generated,
	}
	s.observeRun(dto.RunStatusCompleted, started, report)
	logger.Info("exam schedule run completed",
		zap.Bool("dry_run", dryRun),
		zap.Int("placed", report.Placed()),
		zap.Int("failed", report.Failed()),
		zap.Int64("duration_ms", run.Stats.DurationMs),
	)
	return run, nil
}

// finalizeExam stores one placement and its seat map. Problems are appended to the report
// as failures; the placement itself is always kept.
func (s *ExamScheduleService) finalizeExam(ctx context.Context, logger *zap.Logger, runID string, dryRun bool, exam scheduler.ScheduledExam, report *scheduler.Report) dto.ScheduledExamView {
	view := examView(exam)

	var examID string
	if !dryRun {
		record := &models.Exam{
			RunID:           runID,
			CourseID:        exam.Course.ID,
			RoomID:          exam.Room.ID,
			ExamDate:        exam.Slot.Date,
			StartTime:       exam.Slot.Time.String(),
			DurationMinutes: exam.DurationMinutes,
		}
		start := time.Now()
		err := s.writer.InsertExam(ctx, record)
		s.metrics.ObserveDBQuery("exam_insert", time.Since(start))
		if err != nil {
			logger.Warn("failed to persist exam", zap.String("course_id", exam.Course.ID), zap.Error(err))
			report.RecordFailure(scheduler.Failure{Course: exam.Course, Reason: scheduler.ReasonPersistenceError, Detail: err.Error()})
			return view
		}
		examID = record.ID
		view.ExamID = examID
	}

	seatMap, err := scheduler.LayoutSeats(exam.Room, exam.Course.Students)
	if err != nil {
		report.RecordFailure(scheduler.Failure{Course: exam.Course, Reason: scheduler.ReasonSeatCapacityExceeded, ExamID: examID, Detail: err.Error()})
		return view
	}
	if !dryRun {
		seats := make([]models.ExamSeat, 0, len(seatMap.Seats))
		for _, seat := range seatMap.Seats {
			seats = append(seats, models.ExamSeat{ExamID: examID, StudentID: seat.StudentID, SeatRow: seat.Row, SeatColumn: seat.Column})
		}
		start := time.Now()
		err := s.writer.ReplaceSeating(ctx, examID, seats)
		s.metrics.ObserveDBQuery("seat_replace", time.Since(start))
		if err != nil {
			logger.Warn("failed to persist seating", zap.String("exam_id", examID), zap.Error(err))
			report.RecordFailure(scheduler.Failure{Course: exam.Course, Reason: scheduler.ReasonPersistenceError, ExamID: examID, Detail: err.Error()})
			return view
		}
	}
	view.SeatsAssigned = len(seatMap.Seats)
	return view
}

func (s *ExamScheduleService) observeRun(status string, started time.Time, report *scheduler.Report) {
	var placed int
	failures := map[string]int{}
	if report != nil {
		placed = report.Placed()
		for reason, n := range report.FailureCounts() {
			failures[string(reason)] = n
		}
	}
	s.metrics.ObserveScheduleRun(status, time.Since(started), placed, failures)
}

func examView(exam scheduler.ScheduledExam) dto.ScheduledExamView {
	return dto.ScheduledExamView{
		CourseID:        exam.Course.ID,
		CourseCode:      exam.Course.Code,
		CourseName:      exam.Course.Name,
		Grade:           exam.Course.Grade,
		RoomID:          exam.Room.ID,
		RoomCode:        exam.Room.Code,
		RoomName:        exam.Room.Name,
		Date:            exam.Slot.Date.Format(dateLayout),
		StartTime:       exam.Slot.Time.String(),
		EndTime:         exam.End().Format("15:04"),
		DurationMinutes: exam.DurationMinutes,
		EnrolledCount:   exam.EnrolledCount(),
	}
}

func mapSchedulingError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrNoRoomsConfigured):
		return appErrors.Wrap(err, appErrors.ErrNoRoomsConfigured.Code, appErrors.ErrNoRoomsConfigured.Status, appErrors.ErrNoRoomsConfigured.Message)
	case errors.Is(err, scheduler.ErrNoEligibleDates):
		return appErrors.Wrap(err, appErrors.ErrNoEligibleDates.Code, appErrors.ErrNoEligibleDates.Status, appErrors.ErrNoEligibleDates.Message)
	case errors.Is(err, scheduler.ErrDataUnavailable):
		return appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.Status, appErrors.ErrDataUnavailable.Message)
	case errors.Is(err, scheduler.ErrInvalidOptions):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduling run was cancelled")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduling run failed")
	}
}

// isoWeekday maps ISO numbering (1 Monday .. 7 Sunday) onto time.Weekday.
func isoWeekday(iso int) time.Weekday {
	return time.Weekday(iso % 7)
}

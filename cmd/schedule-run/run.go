package main

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/exam-scheduler/internal/csvio"
	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/repository"
	"github.com/noah-isme/exam-scheduler/internal/scheduler"
	"github.com/noah-isme/exam-scheduler/internal/service"
	"github.com/noah-isme/exam-scheduler/pkg/config"
	"github.com/noah-isme/exam-scheduler/pkg/database"
	"github.com/noah-isme/exam-scheduler/pkg/export"
)

type cliOptions struct {
	RunFile     string
	Courses     string
	Enrollments string
	Rooms       string
	Delimiter   rune
	Out         string
	Persist     bool
}

func optionsFromViper(v *viper.Viper) cliOptions {
	delimiter, _ := utf8.DecodeRuneInString(v.GetString("delimiter"))
	if delimiter == utf8.RuneError {
		delimiter = ','
	}
	return cliOptions{
		RunFile:     v.GetString("run-file"),
		Courses:     v.GetString("courses"),
		Enrollments: v.GetString("enrollments"),
		Rooms:       v.GetString("rooms"),
		Delimiter:   delimiter,
		Out:         v.GetString("out"),
		Persist:     v.GetBool("persist"),
	}
}

func readRunFile(path string) (dto.RunExamScheduleRequest, error) {
	var req dto.RunExamScheduleRequest
	raw, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read run file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("parse run file %s: %w", path, err)
	}
	return req, nil
}

func run(ctx context.Context, cfg *config.Config, opts cliOptions, logr *zap.Logger) error {
	req, err := readRunFile(opts.RunFile)
	if err != nil {
		return err
	}

	var db *sqlx.DB
	if opts.Courses == "" || opts.Persist {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	var source scheduler.DataSource
	if opts.Courses != "" {
		source = csvio.NewSource(csvio.Paths{Courses: opts.Courses, Enrollments: opts.Enrollments, Rooms: opts.Rooms}, opts.Delimiter)
	} else {
		source = repository.NewRosterSource(repository.NewCourseRepository(db), repository.NewRoomRepository(db))
	}

	var svc *service.ExamScheduleService
	schedCfg := service.ExamScheduleConfig{
		TimesOfDay:             cfg.Scheduler.TimesOfDay,
		DefaultDurationMinutes: cfg.Scheduler.DefaultDurationMinutes,
		MinSeparationMinutes:   cfg.Scheduler.MinSeparationMinutes,
		SkipWeekends:           cfg.Scheduler.SkipWeekends,
		MaxExamsPerGradePerDay: cfg.Scheduler.MaxExamsPerGradePerDay,
		RoomPolicy:             cfg.Scheduler.RoomPolicy,
		RunTimeout:             cfg.Scheduler.RunTimeout,
	}
	if opts.Persist {
		exams := repository.NewExamRepository(db)
		svc = service.NewExamScheduleService(source, exams, exams, nil, nil, nil, nil, logr, schedCfg)
	} else {
		svc = service.NewExamScheduleService(source, nil, nil, nil, nil, nil, nil, logr, schedCfg)
	}

	result, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	for _, f := range result.Failures {
		logr.Warn("course not scheduled",
			zap.String("course", f.CourseCode),
			zap.String("reason", f.Reason),
			zap.String("detail", f.Detail),
		)
	}
	logr.Info("schedule summary",
		zap.String("run_id", result.RunID),
		zap.Int("courses", result.Stats.Courses),
		zap.Int("rooms", result.Stats.Rooms),
		zap.Int("placed", result.Stats.Placed),
		zap.Int("failed", result.Stats.Failed),
		zap.Bool("dry_run", result.DryRun),
	)

	exporter := service.NewExportService(nil, service.ExportConfig{}, logr, export.NewCSVRenderer(opts.Delimiter))
	data, err := exporter.Render(result)
	if err != nil {
		return err
	}
	if err := csvio.WriteFile(opts.Out, data); err != nil {
		return err
	}
	logr.Info("schedule written", zap.String("path", opts.Out))
	return nil
}

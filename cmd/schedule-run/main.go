package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-scheduler/pkg/config"
	"github.com/noah-isme/exam-scheduler/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet("schedule-run", pflag.ExitOnError)
	flags.String("run-file", "run.yaml", "YAML run request")
	flags.String("courses", "", "courses CSV; postgres is used when empty")
	flags.String("enrollments", "", "course enrollments CSV")
	flags.String("rooms", "", "rooms CSV")
	flags.String("delimiter", ",", "CSV delimiter")
	flags.String("out", "exam-schedule.csv", "schedule CSV output path")
	flags.Bool("persist", false, "store exams and seat maps in postgres")
	_ = flags.Parse(os.Args[1:])

	cfg, v, err := config.LoadWithFlags(flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, optionsFromViper(v), logr); err != nil {
		logr.Error("schedule run failed", zap.Error(err))
		_ = logr.Sync()
		stop()
		os.Exit(1)
	}
}

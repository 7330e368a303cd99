package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg := FromViper(viper.New())

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, []string{"09:00", "13:30", "17:00"}, cfg.Scheduler.TimesOfDay)
	assert.Equal(t, 75, cfg.Scheduler.DefaultDurationMinutes)
	assert.Equal(t, 15, cfg.Scheduler.MinSeparationMinutes)
	assert.True(t, cfg.Scheduler.SkipWeekends)
	assert.Equal(t, 2, cfg.Scheduler.MaxExamsPerGradePerDay)
	assert.Equal(t, "smallest_fit", cfg.Scheduler.RoomPolicy)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.RunTTL)
	assert.Equal(t, "./exports", cfg.Exports.StorageDir)
}

func TestFromViperEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_TIMES_OF_DAY", " 08:00 , 14:00 ,")
	t.Setenv("SCHEDULER_ROOM_POLICY", "round_robin")
	t.Setenv("SCHEDULER_RUN_TIMEOUT", "not-a-duration")
	t.Setenv("ENABLE_CACHE", "true")

	cfg := FromViper(viper.New())

	assert.Equal(t, []string{"08:00", "14:00"}, cfg.Scheduler.TimesOfDay)
	assert.Equal(t, "round_robin", cfg.Scheduler.RoomPolicy)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.RunTimeout)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadWithFlagsBindsFlags(t *testing.T) {
	flags := pflag.NewFlagSet("schedule-run", pflag.ContinueOnError)
	flags.String("out", "schedule.csv", "")
	flags.Bool("persist", false, "")
	require.NoError(t, flags.Parse([]string{"--out", "june.csv"}))

	cfg, v, err := LoadWithFlags(flags)
	require.NoError(t, err)

	assert.Equal(t, "june.csv", v.GetString("out"))
	assert.False(t, v.GetBool("persist"))
	assert.Equal(t, 75, cfg.Scheduler.DefaultDurationMinutes)
}

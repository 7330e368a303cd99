package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Exports   ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig switches the run store between redis and process memory.
type CacheConfig struct {
	Enabled bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig carries run defaults applied when a request leaves an option unset.
type SchedulerConfig struct {
	TimesOfDay             []string
	DefaultDurationMinutes int
	MinSeparationMinutes   int
	SkipWeekends           bool
	MaxExamsPerGradePerDay int
	RoomPolicy             string
	RunTimeout             time.Duration
	RunTTL                 time.Duration
	WorkerConcurrency      int
	WorkerRetries          int
}

// ExportsConfig controls where schedule exports are written.
type ExportsConfig struct {
	StorageDir string
}

func Load() (*Config, error) {
	v, err := readEnvFile()
	if err != nil {
		return nil, err
	}
	return FromViper(v), nil
}

// LoadWithFlags is Load with flags bound into the lookup. The viper instance is returned so
// callers can read their own flags from it.
func LoadWithFlags(flags *pflag.FlagSet) (*Config, *viper.Viper, error) {
	v, err := readEnvFile()
	if err != nil {
		return nil, nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, nil, err
	}
	return FromViper(v), v, nil
}

func readEnvFile() (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return v, nil
}

// FromViper builds a Config from an existing viper instance so command line flags bound by
// the caller take part in the lookup.
func FromViper(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{Enabled: v.GetBool("ENABLE_CACHE")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		TimesOfDay:             splitAndTrim(v.GetString("SCHEDULER_TIMES_OF_DAY")),
		DefaultDurationMinutes: v.GetInt("SCHEDULER_DEFAULT_DURATION_MINUTES"),
		MinSeparationMinutes:   v.GetInt("SCHEDULER_MIN_SEPARATION_MINUTES"),
		SkipWeekends:           v.GetBool("SCHEDULER_SKIP_WEEKENDS"),
		MaxExamsPerGradePerDay: v.GetInt("SCHEDULER_MAX_EXAMS_PER_GRADE_PER_DAY"),
		RoomPolicy:             v.GetString("SCHEDULER_ROOM_POLICY"),
		RunTimeout:             parseDuration(v.GetString("SCHEDULER_RUN_TIMEOUT"), 2*time.Minute),
		RunTTL:                 parseDuration(v.GetString("SCHEDULER_RUN_TTL"), 24*time.Hour),
		WorkerConcurrency:      v.GetInt("SCHEDULER_WORKER_CONCURRENCY"),
		WorkerRetries:          v.GetInt("SCHEDULER_WORKER_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "exam_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_TIMES_OF_DAY", "09:00,13:30,17:00")
	v.SetDefault("SCHEDULER_DEFAULT_DURATION_MINUTES", 75)
	v.SetDefault("SCHEDULER_MIN_SEPARATION_MINUTES", 15)
	v.SetDefault("SCHEDULER_SKIP_WEEKENDS", true)
	v.SetDefault("SCHEDULER_MAX_EXAMS_PER_GRADE_PER_DAY", 2)
	v.SetDefault("SCHEDULER_ROOM_POLICY", "smallest_fit")
	v.SetDefault("SCHEDULER_RUN_TIMEOUT", "2m")
	v.SetDefault("SCHEDULER_RUN_TTL", "24h")
	v.SetDefault("SCHEDULER_WORKER_CONCURRENCY", 1)
	v.SetDefault("SCHEDULER_WORKER_RETRIES", 0)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

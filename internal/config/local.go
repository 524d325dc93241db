package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis, BackendPostgres}

var ErrInvalidConfig = errors.New("invalid config")

// LocalConfig holds configuration for the local learner
type LocalConfig struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Quiz     QuizConfig     `yaml:"quiz" mapstructure:"quiz"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
	Lessons  LessonsConfig  `yaml:"lessons" mapstructure:"lessons"`
	Reminder ReminderConfig `yaml:"reminder" mapstructure:"reminder"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   bool   `yaml:"file" mapstructure:"file"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Backend    string         `yaml:"backend" mapstructure:"backend"`
	Path       string         `yaml:"path,omitempty" mapstructure:"path"`
	Redis      RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Postgres   PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	Resilience bool           `yaml:"resilience" mapstructure:"resilience"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"-" mapstructure:"password"` // Loaded from the environment
	DB       int    `yaml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	URL string `yaml:"-" mapstructure:"url"` // Loaded from the environment
}

// QuizConfig holds quiz timing settings
type QuizConfig struct {
	QuestionTimeLimitSeconds int    `yaml:"question_time_limit_seconds" mapstructure:"question_time_limit_seconds"`
	TickIntervalMS           int    `yaml:"tick_interval_ms" mapstructure:"tick_interval_ms"`
	FeedbackDelayMS          int    `yaml:"feedback_delay_ms" mapstructure:"feedback_delay_ms"`
	SkipPolicy               string `yaml:"skip_policy" mapstructure:"skip_policy"`
}

// CalendarConfig holds the time zone used for day, week and month boundaries
type CalendarConfig struct {
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// LessonsConfig points at an optional directory of module files
type LessonsConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// ReminderConfig controls the daily practice reminder
type ReminderConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Time    string `yaml:"time" mapstructure:"time"` // HH:MM in the calendar time zone
}

func (q QuizConfig) QuestionTimeLimit() time.Duration {
	return time.Duration(q.QuestionTimeLimitSeconds) * time.Second
}

func (q QuizConfig) TickInterval() time.Duration {
	return time.Duration(q.TickIntervalMS) * time.Millisecond
}

func (q QuizConfig) FeedbackDelay() time.Duration {
	return time.Duration(q.FeedbackDelayMS) * time.Millisecond
}

// Location resolves the calendar time zone. Empty or "Local" means the system zone.
func (c CalendarConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// LexiquestDir returns the path to ~/.lexiquest
func LexiquestDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".lexiquest"), nil
}

// EnsureLexiquestDir creates ~/.lexiquest and subdirectories if they don't exist
func EnsureLexiquestDir() (string, error) {
	dir, err := LexiquestDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "data", "lessons"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for a single learner
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   true,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "lexiquest:",
			},
			Resilience: true,
		},
		Quiz: QuizConfig{
			QuestionTimeLimitSeconds: 30,
			TickIntervalMS:           1000,
			FeedbackDelayMS:          2000,
			SkipPolicy:               "incorrect",
		},
		Calendar: CalendarConfig{
			Timezone: "Local",
		},
		Reminder: ReminderConfig{
			Enabled: true,
			Time:    "19:00",
		},
	}
}

// ConfigPath returns ~/.lexiquest/config.yaml
func ConfigPath() (string, error) {
	dir, err := LexiquestDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadLocalConfig loads configuration from ~/.lexiquest/config.yaml
func LoadLocalConfig() (*LocalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadLocalConfigFrom(path)
}

// LoadLocalConfigFrom loads configuration from path, falling back to defaults
// when the file does not exist.
func LoadLocalConfigFrom(path string) (*LocalConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultLocalConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveLocalConfig saves configuration to ~/.lexiquest/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	if _, err := EnsureLexiquestDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveLocalConfigTo(cfg, path)
}

// SaveLocalConfigTo writes cfg as YAML to path
func SaveLocalConfigTo(cfg *LocalConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

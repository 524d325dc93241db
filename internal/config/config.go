package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/lexiquest/internal/quiz"
)

// EnvPrefix namespaces environment overrides, e.g. LEXIQUEST_STORAGE_BACKEND.
const EnvPrefix = "LEXIQUEST"

// Keys shared by CLI flags, environment variables and the config file.
const (
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyLogFile           = "log.file"
	KeyStorageBackend    = "storage.backend"
	KeyStoragePath       = "storage.path"
	KeyRedisAddr         = "storage.redis.addr"
	KeyRedisPassword     = "storage.redis.password"
	KeyRedisDB           = "storage.redis.db"
	KeyRedisPrefix       = "storage.redis.prefix"
	KeyPostgresURL       = "storage.postgres.url"
	KeyResilience        = "storage.resilience"
	KeyQuestionTimeLimit = "quiz.question_time_limit_seconds"
	KeyTickInterval      = "quiz.tick_interval_ms"
	KeyFeedbackDelay     = "quiz.feedback_delay_ms"
	KeySkipPolicy        = "quiz.skip_policy"
	KeyTimezone          = "calendar.timezone"
	KeyLessonsPath       = "lessons.path"
	KeyReminderEnabled   = "reminder.enabled"
	KeyReminderTime      = "reminder.time"
)

var allKeys = []string{
	KeyLogLevel, KeyLogFormat, KeyLogFile,
	KeyStorageBackend, KeyStoragePath,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB, KeyRedisPrefix,
	KeyPostgresURL, KeyResilience,
	KeyQuestionTimeLimit, KeyTickInterval, KeyFeedbackDelay, KeySkipPolicy,
	KeyTimezone, KeyLessonsPath,
	KeyReminderEnabled, KeyReminderTime,
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// NewViper returns a viper instance that reads LEXIQUEST_* variables for every
// config key.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range allKeys {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key)
	}
	return v
}

// LoadDotEnv loads variables from .env style files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the config file at path, or the default location when path is
// empty, then applies overrides from v.
func Load(path string, v *viper.Viper) (*LocalConfig, error) {
	var (
		cfg *LocalConfig
		err error
	)
	if path == "" {
		cfg, err = LoadLocalConfig()
	} else {
		cfg, err = LoadLocalConfigFrom(path)
	}
	if err != nil {
		return nil, err
	}

	if v != nil {
		cfg.Apply(v)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply overwrites every field whose key was set by a flag or environment
// variable in v.
func (c *LocalConfig) Apply(v *viper.Viper) {
	overrideString(v, KeyLogLevel, &c.Log.Level)
	overrideString(v, KeyLogFormat, &c.Log.Format)
	overrideBool(v, KeyLogFile, &c.Log.File)

	overrideString(v, KeyStorageBackend, &c.Storage.Backend)
	overrideString(v, KeyStoragePath, &c.Storage.Path)
	overrideString(v, KeyRedisAddr, &c.Storage.Redis.Addr)
	overrideString(v, KeyRedisPassword, &c.Storage.Redis.Password)
	overrideInt(v, KeyRedisDB, &c.Storage.Redis.DB)
	overrideString(v, KeyRedisPrefix, &c.Storage.Redis.Prefix)
	overrideString(v, KeyPostgresURL, &c.Storage.Postgres.URL)
	overrideBool(v, KeyResilience, &c.Storage.Resilience)

	overrideInt(v, KeyQuestionTimeLimit, &c.Quiz.QuestionTimeLimitSeconds)
	overrideInt(v, KeyTickInterval, &c.Quiz.TickIntervalMS)
	overrideInt(v, KeyFeedbackDelay, &c.Quiz.FeedbackDelayMS)
	overrideString(v, KeySkipPolicy, &c.Quiz.SkipPolicy)

	overrideString(v, KeyTimezone, &c.Calendar.Timezone)
	overrideString(v, KeyLessonsPath, &c.Lessons.Path)

	overrideBool(v, KeyReminderEnabled, &c.Reminder.Enabled)
	overrideString(v, KeyReminderTime, &c.Reminder.Time)
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func overrideInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func overrideBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

// Validate reports every problem in the config at once.
func (c *LocalConfig) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if !lo.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		invalid("log level %q", c.Log.Level)
	}
	if !lo.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		invalid("log format %q", c.Log.Format)
	}

	switch c.Storage.Backend {
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			invalid("redis backend needs an address")
		}
	case BackendPostgres:
		if c.Storage.Postgres.URL == "" {
			invalid("postgres backend needs a url")
		}
	default:
		if !lo.Contains(Backends, c.Storage.Backend) {
			invalid("storage backend %q", c.Storage.Backend)
		}
	}

	if c.Quiz.QuestionTimeLimitSeconds <= 0 {
		invalid("question time limit must be positive")
	}
	if c.Quiz.TickIntervalMS <= 0 {
		invalid("tick interval must be positive")
	}
	if c.Quiz.FeedbackDelayMS < 0 {
		invalid("feedback delay must not be negative")
	}
	if _, err := quiz.ParseSkipPolicy(c.Quiz.SkipPolicy); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if _, err := c.Calendar.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := time.Parse("15:04", c.Reminder.Time); c.Reminder.Enabled && err != nil {
		invalid("reminder time %q (want HH:MM)", c.Reminder.Time)
	}

	return errors.Join(errs...)
}

// StoragePath returns where the file and sqlite backends keep their data.
// An explicit path wins; otherwise it lives under dir.
func (c *LocalConfig) StoragePath(dir string) string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Backend == BackendFile {
		return filepath.Join(dir, "data")
	}
	return filepath.Join(dir, "data", "lexiquest.db")
}

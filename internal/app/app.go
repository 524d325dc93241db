// Package app wires configuration, storage, the lesson catalog and the
// progress store into one learner application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/lexiquest/internal/config"
	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/lesson"
	"github.com/felixgeelhaar/lexiquest/internal/progress"
	"github.com/felixgeelhaar/lexiquest/internal/quiz"
	"github.com/felixgeelhaar/lexiquest/internal/reminder"
	"github.com/felixgeelhaar/lexiquest/internal/storage"
)

// ErrNoLearner is returned when an operation needs a signed-in learner.
var ErrNoLearner = errors.New("no learner signed in")

// App holds the services of one running learner application
type App struct {
	cfg    *config.LocalConfig
	logger *slog.Logger
	now    func() time.Time

	kv       storage.KV
	events   *domain.EventDispatcher
	activity Journal
	stopLog  func()

	Progress *progress.Store
	Lessons  *lesson.Registry
}

// Options holds what New needs beyond the config
type Options struct {
	Config *config.LocalConfig
	Dir    string // Data directory, usually ~/.lexiquest
	Logger *slog.Logger
	Clock  func() time.Time
}

// New opens storage, loads the lesson catalog and the learner's progress.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultLocalConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, err
	}

	// Initialize lesson catalog
	loader := lesson.DefaultLoader()
	if cfg.Lessons.Path != "" {
		loader = lesson.NewDirLoader(cfg.Lessons.Path)
	}
	registry := lesson.NewRegistry(loader)
	if err := registry.Load(); err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	// Initialize storage
	backend, err := OpenStorage(ctx, cfg, opts.Dir, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		now:      now,
		kv:       backend.KV,
		events:   domain.NewEventDispatcher(),
		activity: backend.Journal,
		Lessons:  registry,
	}
	if a.activity != nil {
		a.stopLog = recordActivity(a.events, a.activity, logger)
	}

	store, err := progress.Open(ctx, a.kv,
		progress.WithLogger(logger.With("component", "progress")),
		progress.WithClock(now),
		progress.WithCalendar(domain.NewCalendar(loc)),
		progress.WithEvents(a.events),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open progress: %w", err)
	}
	a.Progress = store

	logger.Debug("app ready",
		"backend", cfg.Storage.Backend,
		"modules", len(registry.Modules()),
		"timezone", loc.String())

	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() *config.LocalConfig {
	return a.cfg
}

// Events returns the dispatcher shared by the progress store and quiz sessions.
func (a *App) Events() *domain.EventDispatcher {
	return a.events
}

// Activity returns the activity journal, or nil when the backend keeps none.
func (a *App) Activity() Journal {
	return a.activity
}

// QuizConfig translates the quiz section of the config.
func (a *App) QuizConfig() (quiz.Config, error) {
	policy, err := quiz.ParseSkipPolicy(a.cfg.Quiz.SkipPolicy)
	if err != nil {
		return quiz.Config{}, err
	}
	return quiz.Config{
		QuestionTimeLimit: a.cfg.Quiz.QuestionTimeLimit(),
		TickInterval:      a.cfg.Quiz.TickInterval(),
		FeedbackDelay:     a.cfg.Quiz.FeedbackDelay(),
		SkipPolicy:        policy,
	}, nil
}

// NewQuiz returns an idle quiz session that reports to the progress store.
func (a *App) NewQuiz(opts ...quiz.Option) (*quiz.Session, error) {
	cfg, err := a.QuizConfig()
	if err != nil {
		return nil, err
	}
	base := []quiz.Option{
		quiz.WithLogger(a.logger.With("component", "quiz")),
		quiz.WithEvents(a.events),
		quiz.WithClock(a.now),
	}
	return quiz.NewSession(cfg, a.Progress, append(base, opts...)...), nil
}

// StartLesson looks up lessonID and starts a quiz on it.
func (a *App) StartLesson(ctx context.Context, lessonID string, opts ...quiz.Option) (*quiz.Session, error) {
	if _, ok := a.Progress.User(); !ok {
		return nil, ErrNoLearner
	}
	l, err := a.Lessons.Lesson(lessonID)
	if err != nil {
		return nil, err
	}
	if l.Locked {
		return nil, fmt.Errorf("%w: %s", domain.ErrLessonLocked, lessonID)
	}

	session, err := a.NewQuiz(opts...)
	if err != nil {
		return nil, err
	}
	if err := session.Start(ctx, l); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

// Recommend suggests up to n lessons for the signed-in learner.
func (a *App) Recommend(n int) ([]domain.Lesson, error) {
	u, ok := a.Progress.User()
	if !ok {
		return nil, ErrNoLearner
	}
	return a.Lessons.Recommend(u.CompletedLessons, u.PreferredLanguages, n), nil
}

// Reminder prepares the daily practice reminder at the configured time in the
// calendar time zone. at overrides the configured time when not empty.
func (a *App) Reminder(notify reminder.Notifier, at string) (*reminder.Scheduler, error) {
	if at == "" {
		at = a.cfg.Reminder.Time
	}
	loc, err := a.cfg.Calendar.Location()
	if err != nil {
		return nil, err
	}
	return reminder.NewScheduler(a.Progress, notify, loc, at, a.logger.With("component", "reminder"))
}

// Close releases storage connections.
func (a *App) Close() error {
	if a.stopLog != nil {
		a.stopLog()
	}
	if c, ok := a.kv.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close storage", "error", err)
			return err
		}
	}
	return nil
}

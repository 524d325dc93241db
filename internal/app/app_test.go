package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/lexiquest/internal/config"
	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/progress"
	"github.com/felixgeelhaar/lexiquest/internal/quiz"
	"github.com/felixgeelhaar/lexiquest/internal/reminder"
)

func testConfig(backend string) *config.LocalConfig {
	cfg := config.DefaultLocalConfig()
	cfg.Storage.Backend = backend
	cfg.Quiz.FeedbackDelayMS = 0
	cfg.Quiz.QuestionTimeLimitSeconds = 3600
	cfg.Calendar.Timezone = "UTC"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.LocalConfig) *App {
	t.Helper()
	a, err := New(context.Background(), Options{
		Config: cfg,
		Dir:    t.TempDir(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:  func() time.Time { return time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func signIn(t *testing.T, a *App) {
	t.Helper()
	_, err := a.Progress.CreateUser(context.Background(), progress.Profile{
		Name:      "Ana",
		Email:     "ana@example.com",
		Languages: []string{"spanish"},
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
}

func playGreetings(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()
	session, err := a.StartLesson(ctx, "spanish_greetings")
	if err != nil {
		t.Fatalf("StartLesson() error = %v", err)
	}
	defer session.Close()

	for _, answer := range []string{"hola", "Thank you", "Maria"} {
		session.SelectAnswer(answer)
		if err := session.Submit(ctx); err != nil {
			t.Fatalf("Submit(%q) error = %v", answer, err)
		}
	}
	if session.State() != quiz.StateCompleted {
		t.Fatalf("State() = %v; want completed", session.State())
	}
}

func TestApp_QuizReportsToProgress(t *testing.T) {
	a := newTestApp(t, testConfig(config.BackendMemory))
	signIn(t, a)

	playGreetings(t, a)

	u, _ := a.Progress.User()
	if len(u.CompletedLessons) != 1 || u.CompletedLessons[0] != "spanish_greetings" {
		t.Errorf("CompletedLessons = %v", u.CompletedLessons)
	}
	if u.TotalXP < 25 {
		t.Errorf("TotalXP = %d; want at least the lesson reward", u.TotalXP)
	}
	if u.PerfectScores != 1 {
		t.Errorf("PerfectScores = %d; want 1", u.PerfectScores)
	}

	next, err := a.Recommend(1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(next) != 1 || next[0].ID != "spanish_introductions" {
		t.Errorf("Recommend() = %v; want spanish_introductions", next)
	}
}

func TestApp_StartLessonErrors(t *testing.T) {
	a := newTestApp(t, testConfig(config.BackendMemory))
	ctx := context.Background()

	if _, err := a.StartLesson(ctx, "spanish_greetings"); !errors.Is(err, ErrNoLearner) {
		t.Errorf("StartLesson() without learner error = %v; want ErrNoLearner", err)
	}
	if _, err := a.Recommend(3); !errors.Is(err, ErrNoLearner) {
		t.Errorf("Recommend() without learner error = %v; want ErrNoLearner", err)
	}

	signIn(t, a)
	if _, err := a.StartLesson(ctx, "klingon_101"); !errors.Is(err, domain.ErrLessonNotFound) {
		t.Errorf("StartLesson(unknown) error = %v; want ErrLessonNotFound", err)
	}
}

func TestApp_QuizConfig(t *testing.T) {
	cfg := testConfig(config.BackendMemory)
	cfg.Quiz.SkipPolicy = "correct"
	cfg.Quiz.TickIntervalMS = 250
	a := newTestApp(t, cfg)

	qc, err := a.QuizConfig()
	if err != nil {
		t.Fatalf("QuizConfig() error = %v", err)
	}
	if qc.SkipPolicy != quiz.SkipCorrect {
		t.Errorf("SkipPolicy = %q; want correct", qc.SkipPolicy)
	}
	if qc.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %v; want 250ms", qc.TickInterval)
	}
	if qc.QuestionTimeLimit != time.Hour {
		t.Errorf("QuestionTimeLimit = %v; want 1h", qc.QuestionTimeLimit)
	}
	if qc.FeedbackDelay != 0 {
		t.Errorf("FeedbackDelay = %v; want 0", qc.FeedbackDelay)
	}
}

func TestApp_SQLiteKeepsActivity(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, testConfig(config.BackendSQLite))
	if a.Activity() == nil {
		t.Fatal("Activity() = nil; want a journal for sqlite")
	}
	signIn(t, a)
	playGreetings(t, a)

	entries, err := a.Activity().Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.EventType] = true
	}
	for _, want := range []string{domain.EventLessonCompleted, domain.EventQuizCompleted, domain.EventQuizAnswerJudged} {
		if !seen[want] {
			t.Errorf("journal has no %s entry", want)
		}
	}
	if seen[domain.EventQuizStateChanged] || seen[domain.EventQuizTimerTick] {
		t.Error("journal recorded quiz state changes or ticks")
	}

	if err := a.Progress.DeleteAccount(ctx); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	entries, err = a.Activity().Recent(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("journal has %d entries after account deletion; want 0", len(entries))
	}
}

func TestApp_ProgressSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(config.BackendFile)
	ctx := context.Background()
	opts := Options{
		Config: cfg,
		Dir:    dir,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	a, err := New(ctx, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	signIn(t, a)
	if err := a.Progress.AddXP(ctx, 40); err != nil {
		t.Fatalf("AddXP() error = %v", err)
	}
	a.Close()

	b, err := New(ctx, opts)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer b.Close()

	u, ok := b.Progress.User()
	if !ok {
		t.Fatal("User() not restored")
	}
	if u.Name != "Ana" || u.TotalXP < 40 {
		t.Errorf("restored user = %s with %d XP", u.Name, u.TotalXP)
	}
	if b.Activity() != nil {
		t.Error("file backend should keep no journal")
	}
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig("tape")
	if _, err := OpenStorage(ctx, cfg, t.TempDir(), logger); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("OpenStorage(tape) error = %v; want ErrInvalidConfig", err)
	}

	cfg = testConfig(config.BackendSQLite)
	cfg.Storage.Path = filepath.Join(t.TempDir(), "custom.db")
	backend, err := OpenStorage(ctx, cfg, "", logger)
	if err != nil {
		t.Fatalf("OpenStorage(sqlite) error = %v", err)
	}
	defer backend.KV.(interface{ Close() error }).Close()
	if backend.Journal == nil {
		t.Error("sqlite backend has no journal")
	}
}

func TestApp_Reminder(t *testing.T) {
	a := newTestApp(t, testConfig(config.BackendMemory))
	signIn(t, a)

	var nudges []reminder.Nudge
	notify := reminder.NotifierFunc(func(_ context.Context, n reminder.Nudge) error {
		nudges = append(nudges, n)
		return nil
	})

	if _, err := a.Reminder(notify, "7pm"); !errors.Is(err, reminder.ErrInvalidTime) {
		t.Errorf("Reminder(7pm) error = %v; want ErrInvalidTime", err)
	}

	s, err := a.Reminder(notify, "")
	if err != nil {
		t.Fatalf("Reminder() error = %v", err)
	}
	s.Run(context.Background())
	if len(nudges) != 1 {
		t.Fatalf("nudges = %+v; want one", nudges)
	}
	if nudges[0].Name != "Ana" || nudges[0].DailyXP != 0 || nudges[0].StreakAtRisk {
		t.Errorf("nudge = %+v", nudges[0])
	}
}

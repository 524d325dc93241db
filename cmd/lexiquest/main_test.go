package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

// isolate points HOME at a temp dir and selects a file backend without timers
// that would slow the tests down.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LEXIQUEST_STORAGE_BACKEND", "file")
	t.Setenv("LEXIQUEST_QUIZ_FEEDBACK_DELAY_MS", "0")
	t.Setenv("LEXIQUEST_CALENDAR_TIMEZONE", "UTC")
	t.Setenv("LEXIQUEST_LOG_FILE", "false")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := newCLI()
	defer c.close()

	root := c.root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", ""}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, stdin, args...)
	if err != nil {
		t.Fatalf("lexiquest %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func initLearner(t *testing.T) {
	t.Helper()
	out := mustRun(t, "", "init", "--name", "Ana", "--languages", "Spanish", "--goal", "casual")
	if !strings.Contains(out, "Welcome, Ana!") {
		t.Fatalf("init output = %q", out)
	}
}

func TestInit_PromptsForMissingFields(t *testing.T) {
	isolate(t)

	out := mustRun(t, "Ana\nana@example.com\nSpanish, French\nintensive\n", "init")
	if !strings.Contains(out, "Welcome, Ana!") {
		t.Errorf("init output = %q", out)
	}
	if !strings.Contains(out, "Daily goal: 100 XP (intensive)") {
		t.Errorf("init output missing goal: %q", out)
	}

	again := mustRun(t, "", "init")
	if !strings.Contains(again, "Welcome back, Ana!") {
		t.Errorf("second init output = %q", again)
	}
}

func TestCommands_RequireLearner(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{
		{"stats"},
		{"achievements"},
		{"play", "spanish_greetings"},
		{"delete-account", "--yes"},
	} {
		if _, err := runCLI(t, "", args...); !errors.Is(err, errNoLearner) {
			t.Errorf("lexiquest %v error = %v; want errNoLearner", args, err)
		}
	}
}

func TestLessons(t *testing.T) {
	isolate(t)

	out := mustRun(t, "", "lessons")
	for _, want := range []string{"Spanish Basics (Spanish)", "spanish_greetings", "french_pronunciation"} {
		if !strings.Contains(out, want) {
			t.Errorf("lessons output missing %q", want)
		}
	}

	out = mustRun(t, "", "lessons", "--language", "french")
	if strings.Contains(out, "spanish_greetings") {
		t.Error("language filter kept Spanish lessons")
	}

	out = mustRun(t, "", "lessons", "show", "spanish_greetings")
	if !strings.Contains(out, "Questions:  3") || !strings.Contains(out, "Next up: ") {
		t.Errorf("lessons show output = %q", out)
	}

	if _, err := runCLI(t, "", "lessons", "show", "nope"); !errors.Is(err, domain.ErrLessonNotFound) {
		t.Errorf("lessons show nope error = %v; want ErrLessonNotFound", err)
	}
}

func TestPlay_PerfectRun(t *testing.T) {
	isolate(t)
	initLearner(t)

	out := mustRun(t, "Hola\nthank you\nMARIA\n", "play", "spanish_greetings")
	for _, want := range []string{"Question 1/3", "✓ Correct!", "Score:   100%", "Perfect score!"} {
		if !strings.Contains(out, want) {
			t.Errorf("play output missing %q:\n%s", want, out)
		}
	}

	stats := mustRun(t, "", "stats")
	if !strings.Contains(stats, "1 completed, 1 perfect") {
		t.Errorf("stats output = %q", stats)
	}

	next := mustRun(t, "", "lessons", "next", "-n", "1")
	if !strings.Contains(next, "spanish_introductions") {
		t.Errorf("lessons next output = %q", next)
	}
}

func TestPlay_SkipAndOptionNumbers(t *testing.T) {
	isolate(t)
	initLearner(t)

	// Skips count as wrong by default.
	out := mustRun(t, "s\ns\ns\n", "play", "spanish_introductions")
	if !strings.Contains(out, "Skipped.") || !strings.Contains(out, "Score:   0%") {
		t.Errorf("play output = %s", out)
	}

	out = mustRun(t, "s\ns\ns\n", "play", "spanish_introductions", "--skip-policy", "correct")
	if !strings.Contains(out, "Score:   100%") {
		t.Errorf("play --skip-policy correct output = %s", out)
	}
}

func TestPlay_QuitAbandons(t *testing.T) {
	isolate(t)
	initLearner(t)

	out := mustRun(t, "q\n", "play", "spanish_greetings")
	if !strings.Contains(out, "Quiz abandoned.") {
		t.Errorf("play output = %q", out)
	}

	stats := mustRun(t, "", "stats")
	if !strings.Contains(stats, "0 completed") {
		t.Errorf("stats after quitting = %q", stats)
	}
}

func TestProfile_Update(t *testing.T) {
	isolate(t)
	initLearner(t)

	out := mustRun(t, "", "profile", "--goal", "fluent", "--name", "Ana María")
	if !strings.Contains(out, "Profile updated") || !strings.Contains(out, "Name:       Ana María") {
		t.Errorf("profile output = %q", out)
	}
	if !strings.Contains(out, "fluent (200 XP/day") {
		t.Errorf("profile output missing goal: %q", out)
	}

	if _, err := runCLI(t, "", "profile", "--goal", "heroic"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("profile --goal heroic error = %v; want ErrInvalidInput", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	isolate(t)
	initLearner(t)

	out := mustRun(t, "nope\n", "delete-account")
	if !strings.Contains(out, "Cancelled.") {
		t.Errorf("delete-account output = %q", out)
	}
	mustRun(t, "", "stats")

	out = mustRun(t, "delete\n", "delete-account")
	if !strings.Contains(out, "Account deleted") {
		t.Errorf("delete-account output = %q", out)
	}
	if _, err := runCLI(t, "", "stats"); !errors.Is(err, errNoLearner) {
		t.Errorf("stats after delete error = %v; want errNoLearner", err)
	}
}

func TestHistory_FileBackend(t *testing.T) {
	isolate(t)
	initLearner(t)

	out := mustRun(t, "", "history")
	if !strings.Contains(out, "keeps no activity history") {
		t.Errorf("history output = %q", out)
	}
}

func TestHistory_SQLiteBackend(t *testing.T) {
	isolate(t)
	t.Setenv("LEXIQUEST_STORAGE_BACKEND", "sqlite")
	initLearner(t)
	mustRun(t, "Hola\nThank you\nMaria\n", "play", "spanish_greetings")

	out := mustRun(t, "", "history", "-n", "50")
	for _, want := range []string{domain.EventLessonCompleted, domain.EventOnboardingCompleted} {
		if !strings.Contains(out, want) {
			t.Errorf("history output missing %s:\n%s", want, out)
		}
	}
}

func TestRemind_Now(t *testing.T) {
	isolate(t)
	initLearner(t)

	out := mustRun(t, "", "remind", "--now")
	if !strings.Contains(out, "🔔") || !strings.Contains(out, "20 XP to go") {
		t.Errorf("remind output = %q", out)
	}

	mustRun(t, "Hola\nThank you\nMaria\n", "play", "spanish_greetings")
	out = mustRun(t, "", "remind", "--now")
	if !strings.Contains(out, "Daily goal met") {
		t.Errorf("remind after practice = %q", out)
	}
}

func TestRemind_Disabled(t *testing.T) {
	isolate(t)
	t.Setenv("LEXIQUEST_REMINDER_ENABLED", "false")
	initLearner(t)

	out := mustRun(t, "", "remind")
	if !strings.Contains(out, "disabled") {
		t.Errorf("remind output = %q", out)
	}
}

func TestConfig_ShowsOverrides(t *testing.T) {
	isolate(t)

	out := mustRun(t, "", "--timezone", "Europe/Madrid", "config")
	if !strings.Contains(out, "timezone: Europe/Madrid") || !strings.Contains(out, "backend: file") {
		t.Errorf("config output = %q", out)
	}

	if _, err := runCLI(t, "", "--storage", "floppy", "config"); err == nil {
		t.Error("invalid --storage accepted")
	}
}

func TestResolveAnswer(t *testing.T) {
	q := &domain.Question{Options: []string{"Hola", "Adiós", "Gracias"}}
	tests := []struct {
		in   string
		want string
	}{
		{"1", "Hola"},
		{"3", "Gracias"},
		{"4", "4"},
		{"0", "0"},
		{"gracias", "gracias"},
	}
	for _, tt := range tests {
		if got := resolveAnswer(q, tt.in); got != tt.want {
			t.Errorf("resolveAnswer(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
	if got := resolveAnswer(nil, "2"); got != "2" {
		t.Errorf("resolveAnswer(nil) = %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var debug, warn bytes.Buffer
	logger := slog.New(&multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}).With("component", "test")

	logger.Info("lesson completed", "lesson_id", "spanish_greetings")
	logger.Warn("write failed")

	if !strings.Contains(debug.String(), "lesson_id=spanish_greetings") || !strings.Contains(debug.String(), "component=test") {
		t.Errorf("debug handler output = %q", debug.String())
	}
	if strings.Contains(warn.String(), "lesson completed") {
		t.Error("warn handler received an info record")
	}
	if !strings.Contains(warn.String(), "write failed") {
		t.Errorf("warn handler output = %q", warn.String())
	}
}

// Package quiz runs one timed attempt at a lesson.
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

// State is where a session is in its question loop.
type State string

const (
	StateNotStarted      State = "not_started"
	StateInQuestion      State = "in_question"
	StateAnswerSubmitted State = "answer_submitted"
	StateCompleted       State = "completed"
)

// Reporter receives the result of every finished attempt exactly once.
type Reporter interface {
	ReportLesson(ctx context.Context, result domain.LessonResult) error
}

// Judgement is the outcome of the last submitted answer.
type Judgement struct {
	QuestionID    string
	Answer        string
	Correct       bool
	CorrectAnswer string
	Explanation   string
	Skipped       bool
	TimedOut      bool
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	State     State
	Lesson    domain.Lesson
	Progress  domain.LessonProgress
	Question  *domain.Question
	Selected  string
	Remaining time.Duration
	Last      *Judgement
	Result    *domain.LessonResult
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithEvents sets the dispatcher that receives quiz events.
func WithEvents(d *domain.EventDispatcher) Option {
	return func(s *Session) { s.events = d }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is the state machine for one lesson attempt.
//
// The countdown runs on its own goroutine per question. Every exit from
// StateInQuestion bumps gen and cancels the countdown context, so a tick that
// was already in flight sees a stale generation and does nothing.
type Session struct {
	mu       sync.Mutex
	cfg      Config
	reporter Reporter
	events   *domain.EventDispatcher
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	lesson    domain.Lesson
	state     State
	progress  domain.LessonProgress
	selected  string
	remaining time.Duration
	last      *Judgement
	result    *domain.LessonResult
	reported  bool

	gen         uint64
	stopTimer   context.CancelFunc
	pendingNext *time.Timer
}

// NewSession creates an idle session. reporter may be nil.
func NewSession(cfg Config, reporter Reporter, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:      cfg.withDefaults(),
		reporter: reporter,
		logger:   slog.Default(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateNotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Start begins a fresh attempt at lesson. A lesson without questions completes
// at once with a score of zero.
func (s *Session) Start(ctx context.Context, lesson domain.Lesson) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	s.stopLocked()
	s.lesson = lesson
	s.resetAttemptLocked()
	s.logger.Info("quiz started", "lesson_id", lesson.ID, "attempt_id", s.progress.AttemptID, "questions", len(lesson.Questions))

	var events []domain.Event
	var result *domain.LessonResult
	if len(lesson.Questions) == 0 {
		events, result = s.completeLocked(nil)
	} else {
		events = s.enterQuestionLocked(nil)
	}
	s.mu.Unlock()

	return s.finish(ctx, events, result)
}

// SelectAnswer records the current choice. Ignored unless a question is open.
func (s *Session) SelectAnswer(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInQuestion {
		return
	}
	s.selected = answer
}

// Submit judges the selected answer.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateInQuestion {
		s.mu.Unlock()
		return ErrNotInQuestion
	}
	if strings.TrimSpace(s.selected) == "" {
		s.mu.Unlock()
		return ErrNoAnswerSelected
	}
	events, result := s.submitLocked(s.selected, Judgement{})
	s.mu.Unlock()

	return s.finish(ctx, events, result)
}

// Skip moves past the current question as the skip policy dictates.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateInQuestion {
		s.mu.Unlock()
		return ErrNotInQuestion
	}

	answer := ""
	if s.cfg.SkipPolicy == SkipCorrect {
		answer = s.currentQuestionLocked().CorrectAnswer
	}
	s.logger.Debug("question skipped", "lesson_id", s.lesson.ID, "index", s.progress.CurrentQuestionIndex, "policy", s.cfg.SkipPolicy)
	events, result := s.submitLocked(answer, Judgement{Skipped: true})
	s.mu.Unlock()

	return s.finish(ctx, events, result)
}

// Timeout submits whatever is selected, even nothing. It does nothing when no
// question is open.
func (s *Session) Timeout(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateInQuestion {
		s.mu.Unlock()
		return nil
	}
	events, result := s.timeoutLocked()
	s.mu.Unlock()

	return s.finish(ctx, events, result)
}

// Next shows the next question without waiting for the feedback delay.
func (s *Session) Next() {
	s.mu.Lock()
	if s.state != StateAnswerSubmitted {
		s.mu.Unlock()
		return
	}
	events := s.advanceLocked()
	s.mu.Unlock()

	s.events.PublishAll(events)
}

// Reset discards the attempt and returns to StateNotStarted for the same
// lesson. Call Start again to play it.
func (s *Session) Reset() {
	s.mu.Lock()
	s.stopLocked()
	from := s.state
	s.resetAttemptLocked()
	var events []domain.Event
	if from != StateNotStarted {
		events = append(events, s.stateEventLocked(from, StateNotStarted))
	}
	s.mu.Unlock()

	s.events.PublishAll(events)
}

// Close stops every timer. The session cannot be started again.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
	s.cancel()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:     s.state,
		Lesson:    s.lesson,
		Progress:  s.progress,
		Selected:  s.selected,
		Remaining: s.remaining,
	}
	if s.state == StateInQuestion {
		q := s.currentQuestionLocked()
		snap.Question = &q
	}
	if s.last != nil {
		j := *s.last
		snap.Last = &j
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// -----------------------------------------------------------------------------
// Transitions
// -----------------------------------------------------------------------------

func (s *Session) resetAttemptLocked() {
	s.state = StateNotStarted
	s.progress = domain.NewLessonProgress(s.lesson, s.now())
	s.selected = ""
	s.remaining = 0
	s.last = nil
	s.result = nil
	s.reported = false
}

func (s *Session) currentQuestionLocked() domain.Question {
	return s.lesson.Questions[s.progress.CurrentQuestionIndex]
}

func (s *Session) stateEventLocked(from, to State) domain.Event {
	return domain.NewQuizStateChangedEvent(s.progress.AttemptID, s.lesson.ID, string(from), string(to), s.progress.CurrentQuestionIndex, s.now())
}

func (s *Session) setStateLocked(to State, events []domain.Event) []domain.Event {
	from := s.state
	s.state = to
	return append(events, s.stateEventLocked(from, to))
}

// enterQuestionLocked opens the question at the current index and starts its
// countdown.
func (s *Session) enterQuestionLocked(events []domain.Event) []domain.Event {
	s.selected = ""
	s.remaining = s.cfg.QuestionTimeLimit
	events = s.setStateLocked(StateInQuestion, events)

	s.gen++
	ctx, cancel := context.WithCancel(s.ctx)
	s.stopTimer = cancel
	go s.countdown(ctx, s.gen)
	return events
}

func (s *Session) timeoutLocked() ([]domain.Event, *domain.LessonResult) {
	s.remaining = 0
	s.logger.Debug("question timed out", "lesson_id", s.lesson.ID, "index", s.progress.CurrentQuestionIndex)
	return s.submitLocked(s.selected, Judgement{TimedOut: true})
}

// submitLocked judges answer for the open question and moves on.
func (s *Session) submitLocked(answer string, j Judgement) ([]domain.Event, *domain.LessonResult) {
	s.stopLocked()

	q := s.currentQuestionLocked()
	correct := q.Accepts(answer)
	if correct {
		s.progress.CorrectAnswers++
	}
	s.progress.CurrentQuestionIndex++

	j.QuestionID = q.ID
	j.Answer = answer
	j.Correct = correct
	j.CorrectAnswer = q.CorrectAnswer
	j.Explanation = q.Explanation
	s.last = &j

	events := []domain.Event{domain.NewQuizAnswerJudgedEvent(s.progress.AttemptID, q, answer, correct, s.now())}

	if s.progress.CurrentQuestionIndex >= s.progress.TotalQuestions {
		return s.completeLocked(events)
	}

	events = s.setStateLocked(StateAnswerSubmitted, events)
	if s.cfg.FeedbackDelay == 0 {
		return s.advanceLocked(events...), nil
	}

	gen := s.gen
	s.pendingNext = time.AfterFunc(s.cfg.FeedbackDelay, func() { s.advanceAfterFeedback(gen) })
	return events, nil
}

func (s *Session) advanceLocked(events ...domain.Event) []domain.Event {
	if s.pendingNext != nil {
		s.pendingNext.Stop()
		s.pendingNext = nil
	}
	return s.enterQuestionLocked(events)
}

func (s *Session) advanceAfterFeedback(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateAnswerSubmitted {
		s.mu.Unlock()
		return
	}
	s.pendingNext = nil
	events := s.advanceLocked()
	s.mu.Unlock()

	s.events.PublishAll(events)
}

// completeLocked scores the attempt. The result is handed out only once per
// attempt.
func (s *Session) completeLocked(events []domain.Event) ([]domain.Event, *domain.LessonResult) {
	s.stopLocked()

	now := s.now()
	score := domain.ScorePercent(s.progress.CorrectAnswers, s.progress.TotalQuestions)
	s.progress.Score = score
	s.progress.IsCompleted = true
	s.progress.CompletedAt = &now
	s.progress.Attempts++

	result := domain.LessonResult{
		LessonID:       s.lesson.ID,
		AttemptID:      s.progress.AttemptID,
		Score:          score,
		XPEarned:       domain.EarnedXP(s.lesson.XPReward, score),
		CorrectAnswers: s.progress.CorrectAnswers,
		TotalQuestions: s.progress.TotalQuestions,
	}
	s.result = &result

	events = s.setStateLocked(StateCompleted, events)
	events = append(events, domain.NewQuizCompletedEvent(result, now))
	s.logger.Info("quiz completed",
		"lesson_id", result.LessonID,
		"score", result.Score,
		"correct", result.CorrectAnswers,
		"total", result.TotalQuestions,
		"xp_earned", result.XPEarned)

	if s.reported {
		return events, nil
	}
	s.reported = true
	return events, &result
}

// stopLocked cancels the countdown and any pending advance.
func (s *Session) stopLocked() {
	s.gen++
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	if s.pendingNext != nil {
		s.pendingNext.Stop()
		s.pendingNext = nil
	}
}

// finish reports a completed attempt and then publishes events, both outside
// the session lock.
func (s *Session) finish(ctx context.Context, events []domain.Event, result *domain.LessonResult) error {
	var err error
	if result != nil && s.reporter != nil {
		if rerr := s.reporter.ReportLesson(ctx, *result); rerr != nil {
			s.logger.Error("report lesson", "lesson_id", result.LessonID, "error", rerr)
			err = fmt.Errorf("report lesson: %w", rerr)
		}
	}
	s.events.PublishAll(events)
	return err
}

// -----------------------------------------------------------------------------
// Countdown
// -----------------------------------------------------------------------------

func (s *Session) countdown(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := s.tick(ctx, gen); done {
				return
			}
		}
	}
}

// tick counts one interval down for generation gen and fires the timeout when
// the limit is used up. It reports whether the countdown is over.
func (s *Session) tick(ctx context.Context, gen uint64) bool {
	s.mu.Lock()
	if gen != s.gen || s.state != StateInQuestion {
		s.mu.Unlock()
		return true
	}

	s.remaining = max(0, s.remaining-s.cfg.TickInterval)
	events := []domain.Event{domain.NewQuizTimerTickEvent(s.progress.AttemptID, s.progress.CurrentQuestionIndex, s.remaining, s.now())}
	if s.remaining > 0 {
		s.mu.Unlock()
		s.events.PublishAll(events)
		return false
	}

	more, result := s.timeoutLocked()
	s.mu.Unlock()

	// The countdown context dies with the question; reporting must outlive it.
	_ = s.finish(context.WithoutCancel(ctx), append(events, more...), result)
	return true
}

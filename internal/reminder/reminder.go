// Package reminder nudges the learner once a day when the daily goal is still
// open.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/felixgeelhaar/lexiquest/internal/progress"
)

// TimeLayout is the accepted format for the reminder time.
const TimeLayout = "15:04"

var ErrInvalidTime = errors.New("invalid reminder time")

// Source reports the learner's current standing.
type Source interface {
	Overview() (progress.Overview, bool)
}

// Notifier delivers a nudge.
type Notifier interface {
	Remind(ctx context.Context, n Nudge) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Nudge) error

func (f NotifierFunc) Remind(ctx context.Context, n Nudge) error { return f(ctx, n) }

// Nudge describes what is left to do today.
type Nudge struct {
	Name          string
	DailyXP       int
	DailyGoalXP   int
	CurrentStreak int
	StreakAtRisk  bool
}

// Remaining is the XP still needed for today's goal.
func (n Nudge) Remaining() int {
	return max(n.DailyGoalXP-n.DailyXP, 0)
}

// Message renders the nudge as one line.
func (n Nudge) Message() string {
	if n.StreakAtRisk {
		return fmt.Sprintf("%s, your %d-day streak ends tonight. Earn %d XP to keep it going!",
			n.Name, n.CurrentStreak, n.Remaining())
	}
	return fmt.Sprintf("%s, %d XP to go for today's goal (%d/%d).",
		n.Name, n.Remaining(), n.DailyXP, n.DailyGoalXP)
}

// Check returns a nudge when someone is signed in and today's goal is not met.
func Check(src Source) (Nudge, bool) {
	o, ok := src.Overview()
	if !ok || o.DailyGoalMet {
		return Nudge{}, false
	}
	return Nudge{
		Name:          o.Name,
		DailyXP:       o.DailyXP,
		DailyGoalXP:   o.DailyGoalXP,
		CurrentStreak: o.CurrentStreak,
		// A live streak with nothing earned today was last extended yesterday.
		StreakAtRisk: o.CurrentStreak > 0 && o.DailyXP == 0,
	}, true
}

// Scheduler runs the check every day at a fixed wall-clock time.
type Scheduler struct {
	sched  *gocron.Scheduler
	at     string
	src    Source
	notify Notifier
	logger *slog.Logger
	job    *gocron.Job
}

// NewScheduler validates at (HH:MM in loc) and prepares a daily job. Nothing
// runs until Start.
func NewScheduler(src Source, notify Notifier, loc *time.Location, at string, logger *slog.Logger) (*Scheduler, error) {
	if _, err := time.Parse(TimeLayout, at); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTime, at)
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sched:  gocron.NewScheduler(loc),
		at:     at,
		src:    src,
		notify: notify,
		logger: logger,
	}, nil
}

// Start registers the daily job and starts the scheduler in the background.
// ctx is handed to every run.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.job != nil {
		return nil
	}
	job, err := s.sched.Every(1).Day().At(s.at).Do(s.Run, ctx)
	if err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	s.job = job
	s.sched.StartAsync()
	s.logger.Info("reminder scheduled", "at", s.at, "location", s.sched.Location().String())
	return nil
}

// RunNow triggers the scheduled job immediately. The scheduler must be started.
func (s *Scheduler) RunNow() {
	s.sched.RunAll()
}

// Stop halts the scheduler. Runs in progress finish first.
func (s *Scheduler) Stop() {
	s.sched.Stop()
}

// Run performs one check and notifies when there is something to say.
func (s *Scheduler) Run(ctx context.Context) {
	n, ok := Check(s.src)
	if !ok {
		s.logger.Debug("no reminder needed")
		return
	}
	if err := s.notify.Remind(ctx, n); err != nil {
		s.logger.Warn("send reminder", "error", err)
		return
	}
	s.logger.Info("reminder sent", "remaining_xp", n.Remaining(), "streak_at_risk", n.StreakAtRisk)
}

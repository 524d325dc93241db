package progress

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

// AddXP credits n XP to the user, rolls the time windows and runs the
// achievement cascade. Rewards from unlocked achievements are credited the
// same way and may unlock further achievements.
func (s *Store) AddXP(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative xp %d", domain.ErrInvalidInput, n)
	}
	return s.mutate(ctx, "add_xp", func(tx *txn) {
		tx.applyXP(n)
		tx.cascade()
	})
}

// UpdateStreakOnActivity records activity at the current time.
func (s *Store) UpdateStreakOnActivity(ctx context.Context) error {
	return s.mutate(ctx, "update_streak", func(tx *txn) {
		tx.recordActivity()
		tx.cascade()
	})
}

// CompleteLesson marks lessonID completed, credits xpEarned and records
// activity. Completing the same lesson again has no effect.
func (s *Store) CompleteLesson(ctx context.Context, lessonID string, xpEarned int) error {
	return s.ReportLesson(ctx, domain.LessonResult{LessonID: lessonID, XPEarned: xpEarned})
}

// ReportLesson is CompleteLesson for a finished quiz attempt. On the first
// completion of a lesson it also counts correct answers and perfect scores.
func (s *Store) ReportLesson(ctx context.Context, result domain.LessonResult) error {
	if result.LessonID == "" {
		return fmt.Errorf("%w: empty lesson id", domain.ErrInvalidInput)
	}
	if result.XPEarned < 0 {
		return fmt.Errorf("%w: negative xp %d", domain.ErrInvalidInput, result.XPEarned)
	}

	return s.mutate(ctx, "complete_lesson", func(tx *txn) {
		u := tx.s.user
		if !u.MarkCompleted(result.LessonID) {
			tx.s.logger.Debug("lesson already completed", "lesson_id", result.LessonID)
			return
		}
		u.CorrectAnswers += result.CorrectAnswers
		if result.Perfect() {
			u.PerfectScores++
		}
		tx.userDirty = true
		tx.events = append(tx.events, domain.NewLessonCompletedEvent(u.ID, result.LessonID, result.XPEarned, tx.now))
		tx.s.logger.Info("lesson completed",
			"lesson_id", result.LessonID,
			"score", result.Score,
			"xp_earned", result.XPEarned)

		tx.applyXP(result.XPEarned)
		tx.cascade()
		tx.recordActivity()
		tx.cascade()
	})
}

// applyXP rolls the windows, credits n and recomputes the level.
func (tx *txn) applyXP(n int) {
	s := tx.s
	u := s.user
	oldLevel := u.CurrentLevel

	s.progress = s.cal.ApplyXP(s.progress, n, tx.now).MarkGoals(u.LearningGoal)
	u.AddXP(n)
	tx.userDirty = true
	tx.progressDirty = true

	if u.CurrentLevel > oldLevel {
		tx.events = append(tx.events, domain.NewLevelUpEvent(u.ID, oldLevel, u.CurrentLevel, tx.now))
		s.logger.Info("level up", "from", oldLevel, "to", u.CurrentLevel, "total_xp", u.TotalXP)
	}
}

// recordActivity advances the streak. Repeat activity on the same day is
// ignored.
func (tx *txn) recordActivity() {
	s := tx.s
	u := s.user
	before := u.Streak()
	after := s.cal.UpdateStreak(before, tx.now)
	if after.LastActiveDate.Equal(before.LastActiveDate) {
		return
	}

	u.SetStreak(after)
	tx.userDirty = true
	tx.events = append(tx.events, domain.NewStreakUpdatedEvent(u.ID, after, tx.now))
	s.logger.Debug("streak updated", "current", after.Current, "longest", after.Longest)
}

// cascade evaluates achievements until a pass unlocks nothing. Each pass that
// continues has unlocked at least one achievement, so the loop ends within
// len(achievements)+1 passes.
func (tx *txn) cascade() {
	s := tx.s
	for pass := 0; pass <= len(s.achievements); pass++ {
		updated, unlocked, xp := s.cal.CheckAll(s.achievements, *s.user, tx.now)
		s.achievements = updated
		tx.achievementsDirty = true
		if len(unlocked) == 0 {
			return
		}

		for _, a := range unlocked {
			tx.events = append(tx.events, domain.NewAchievementUnlockedEvent(s.user.ID, a, tx.now))
			s.logger.Info("achievement unlocked", "achievement_id", a.ID, "xp_reward", a.XPReward)
		}
		tx.applyXP(xp)
	}
	s.logger.Warn("achievement cascade stopped at its pass limit", "passes", len(s.achievements)+1)
}

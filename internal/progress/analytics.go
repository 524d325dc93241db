package progress

import (
	"slices"

	"github.com/samber/lo"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

// Overview is the dashboard summary for the signed-in user.
type Overview struct {
	Name          string  `json:"name"`
	Level         int     `json:"level"`
	TotalXP       int     `json:"total_xp"`
	XPToNextLevel int     `json:"xp_to_next_level"`
	LevelProgress float64 `json:"level_progress"`

	CurrentStreak         int  `json:"current_streak"`
	LongestStreak         int  `json:"longest_streak"`
	StreakActive          bool `json:"streak_active"`
	DaysUntilStreakBreaks int  `json:"days_until_streak_breaks"`

	DailyXP           int     `json:"daily_xp"`
	WeeklyXP          int     `json:"weekly_xp"`
	MonthlyXP         int     `json:"monthly_xp"`
	DailyGoalXP       int     `json:"daily_goal_xp"`
	DailyGoalProgress float64 `json:"daily_goal_progress"`
	DailyGoalMet      bool    `json:"daily_goal_met"`

	LessonsCompleted     int                  `json:"lessons_completed"`
	PerfectScores        int                  `json:"perfect_scores"`
	UnlockedAchievements int                  `json:"unlocked_achievements"`
	TotalAchievements    int                  `json:"total_achievements"`
	RecentAchievements   []domain.Achievement `json:"recent_achievements"`
	NextAchievement      *domain.Achievement  `json:"next_achievement,omitempty"`
}

// recentAchievementCount is how many unlocked achievements the dashboard lists.
const recentAchievementCount = 3

// Overview summarises the current state. Buckets are rolled to the current
// time for display only; nothing is written.
func (s *Store) Overview() (Overview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return Overview{}, false
	}
	u := s.user
	now := s.now()
	current := s.cal.ApplyXP(s.progress, 0, now)
	streak := u.Streak()
	if !s.cal.IsStreakActive(streak, now) {
		streak.Current = 0
	}

	o := Overview{
		Name:          u.Name,
		Level:         u.CurrentLevel,
		TotalXP:       u.TotalXP,
		XPToNextLevel: u.XPToNextLevel(),
		LevelProgress: u.LevelProgress(),

		CurrentStreak:         streak.Current,
		LongestStreak:         u.LongestStreak,
		StreakActive:          streak.Current > 0,
		DaysUntilStreakBreaks: s.cal.DaysUntilStreakBreaks(streak, now),

		DailyXP:           current.DailyXP,
		WeeklyXP:          current.WeeklyXP,
		MonthlyXP:         current.MonthlyXP,
		DailyGoalXP:       u.LearningGoal.DailyGoalXP(),
		DailyGoalProgress: current.DailyGoalProgress(u.LearningGoal),
		DailyGoalMet:      current.DailyGoalMet,

		LessonsCompleted:     len(u.CompletedLessons),
		PerfectScores:        u.PerfectScores,
		UnlockedAchievements: lo.CountBy(s.achievements, func(a domain.Achievement) bool { return a.IsUnlocked }),
		TotalAchievements:    len(s.achievements),
		RecentAchievements:   domain.RecentlyUnlocked(s.achievements, recentAchievementCount),
	}

	if next, ok := nextAchievement(s.achievements); ok {
		o.NextAchievement = &next
	}
	return o, true
}

// nextAchievement picks the locked achievement closest to unlocking.
func nextAchievement(achievements []domain.Achievement) (domain.Achievement, bool) {
	locked := lo.Filter(achievements, func(a domain.Achievement, _ int) bool { return !a.IsUnlocked })
	if len(locked) == 0 {
		return domain.Achievement{}, false
	}
	slices.SortStableFunc(locked, func(a, b domain.Achievement) int {
		switch {
		case a.Progress > b.Progress:
			return -1
		case a.Progress < b.Progress:
			return 1
		default:
			return 0
		}
	})
	return locked[0], true
}

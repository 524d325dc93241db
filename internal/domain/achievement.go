package domain

import (
	"slices"
	"time"
)

// RequirementKind names the statistic an achievement is measured against.
type RequirementKind string

const (
	RequirementStreakDays        RequirementKind = "streak_days"
	RequirementLessonsCompleted  RequirementKind = "lessons_completed"
	RequirementXPEarned          RequirementKind = "xp_earned"
	RequirementPerfectScores     RequirementKind = "perfect_scores"
	RequirementLanguagesStarted  RequirementKind = "languages_started"
	RequirementDaysActive        RequirementKind = "days_active"
	RequirementQuestionsAnswered RequirementKind = "questions_answered"
)

// Requirement is a kind plus the target count that unlocks the achievement.
type Requirement struct {
	Kind   RequirementKind `json:"kind"`
	Target int             `json:"target"`
}

// AchievementCategory groups achievements for display.
type AchievementCategory string

const (
	CategoryStreak    AchievementCategory = "streak"
	CategoryLearning  AchievementCategory = "learning"
	CategoryMastery   AchievementCategory = "mastery"
	CategorySocial    AchievementCategory = "social"
	CategoryMilestone AchievementCategory = "milestone"
)

// Achievement is a milestone definition together with the user's state for it.
type Achievement struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	IconName     string              `json:"icon_name"`
	Category     AchievementCategory `json:"category"`
	Requirement  Requirement         `json:"requirement"`
	XPReward     int                 `json:"xp_reward"`
	IsUnlocked   bool                `json:"is_unlocked"`
	UnlockedDate *time.Time          `json:"unlocked_date,omitempty"`
	Progress     float64             `json:"progress"`
}

// DefaultAchievements returns the built-in catalog, all locked.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{
			ID:          "first_lesson",
			Title:       "First Steps",
			Description: "Complete your first lesson",
			IconName:    "star.fill",
			Category:    CategoryLearning,
			Requirement: Requirement{Kind: RequirementLessonsCompleted, Target: 1},
			XPReward:    50,
		},
		{
			ID:          "week_streak",
			Title:       "Week Warrior",
			Description: "Maintain a 7-day streak",
			IconName:    "flame.fill",
			Category:    CategoryStreak,
			Requirement: Requirement{Kind: RequirementStreakDays, Target: 7},
			XPReward:    100,
		},
		{
			ID:          "hundred_xp",
			Title:       "Century",
			Description: "Earn 100 XP",
			IconName:    "bolt.fill",
			Category:    CategoryMilestone,
			Requirement: Requirement{Kind: RequirementXPEarned, Target: 100},
			XPReward:    25,
		},
		{
			ID:          "ten_lessons",
			Title:       "Dedicated Learner",
			Description: "Complete 10 lessons",
			IconName:    "book.fill",
			Category:    CategoryLearning,
			Requirement: Requirement{Kind: RequirementLessonsCompleted, Target: 10},
			XPReward:    150,
		},
		{
			ID:          "month_streak",
			Title:       "Monthly Master",
			Description: "Maintain a 30-day streak",
			IconName:    "calendar",
			Category:    CategoryStreak,
			Requirement: Requirement{Kind: RequirementStreakDays, Target: 30},
			XPReward:    500,
		},
		{
			ID:          "thousand_xp",
			Title:       "XP Master",
			Description: "Earn 1000 XP",
			IconName:    "crown.fill",
			Category:    CategoryMastery,
			Requirement: Requirement{Kind: RequirementXPEarned, Target: 1000},
			XPReward:    200,
		},
	}
}

// Evaluate returns how far user is towards req, in [0,1].
func (c Calendar) Evaluate(req Requirement, user User, now time.Time) float64 {
	var have int
	switch req.Kind {
	case RequirementStreakDays:
		have = user.CurrentStreak
	case RequirementLessonsCompleted:
		have = len(user.CompletedLessons)
	case RequirementXPEarned:
		have = user.TotalXP
	case RequirementLanguagesStarted:
		have = len(user.PreferredLanguages)
	case RequirementDaysActive:
		have = c.DaysBetween(user.JoinDate, now)
	case RequirementPerfectScores:
		have = user.PerfectScores
	case RequirementQuestionsAnswered:
		have = user.CorrectAnswers
	default:
		return 0
	}
	return ratio(have, req.Target)
}

// CheckAll evaluates every locked achievement once against a fixed snapshot of
// user. Achievements that reach 1.0 are unlocked and stamped with now; their
// rewards are summed into xpToAward but not applied, so XP granted here can
// only unlock further achievements on a later pass. The input slice is left
// untouched.
func (c Calendar) CheckAll(achievements []Achievement, user User, now time.Time) (updated []Achievement, unlocked []Achievement, xpToAward int) {
	updated = slices.Clone(achievements)
	for i := range updated {
		a := &updated[i]
		if a.IsUnlocked {
			a.Progress = 1.0
			continue
		}

		a.Progress = c.Evaluate(a.Requirement, user, now)
		if a.Progress < 1.0 {
			continue
		}

		unlockedAt := now
		a.IsUnlocked = true
		a.UnlockedDate = &unlockedAt
		a.Progress = 1.0
		unlocked = append(unlocked, *a)
		xpToAward += a.XPReward
	}
	return updated, unlocked, xpToAward
}

// MergeAchievements lays persisted state over the catalog by ID. Catalog
// entries missing from persisted come back locked; persisted entries no longer
// in the catalog are dropped.
func MergeAchievements(catalog, persisted []Achievement) []Achievement {
	byID := make(map[string]Achievement, len(persisted))
	for _, a := range persisted {
		byID[a.ID] = a
	}

	merged := slices.Clone(catalog)
	for i := range merged {
		saved, ok := byID[merged[i].ID]
		if !ok {
			continue
		}
		merged[i].IsUnlocked = saved.IsUnlocked
		merged[i].UnlockedDate = saved.UnlockedDate
		merged[i].Progress = min(1.0, max(0, saved.Progress))
		if saved.IsUnlocked {
			merged[i].Progress = 1.0
		}
	}
	return merged
}

// ResetAchievements returns a copy with every achievement locked again.
func ResetAchievements(achievements []Achievement) []Achievement {
	reset := slices.Clone(achievements)
	for i := range reset {
		reset[i].IsUnlocked = false
		reset[i].UnlockedDate = nil
		reset[i].Progress = 0
	}
	return reset
}

// RecentlyUnlocked returns up to n unlocked achievements, newest first.
func RecentlyUnlocked(achievements []Achievement, n int) []Achievement {
	var out []Achievement
	for _, a := range achievements {
		if a.IsUnlocked && a.UnlockedDate != nil {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b Achievement) int {
		return b.UnlockedDate.Compare(*a.UnlockedDate)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

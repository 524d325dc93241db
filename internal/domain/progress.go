package domain

import "time"

// UserProgress holds the rolling XP buckets for the current day, week and month.
type UserProgress struct {
	DailyXP        int       `json:"daily_xp"`
	WeeklyXP       int       `json:"weekly_xp"`
	MonthlyXP      int       `json:"monthly_xp"`
	LastUpdated    time.Time `json:"last_updated"`
	DailyGoalMet   bool      `json:"daily_goal_met"`
	WeeklyGoalMet  bool      `json:"weekly_goal_met"`
	MonthlyGoalMet bool      `json:"monthly_goal_met"`
}

// NewUserProgress returns empty buckets stamped at now.
func NewUserProgress(now time.Time) UserProgress {
	return UserProgress{LastUpdated: now}
}

// ApplyXP rolls over every bucket whose period ended since LastUpdated and then
// adds earned to all three. Resets happen before the add, and each bucket is
// judged independently: a new day inside the same week only clears the daily
// bucket.
func (c Calendar) ApplyXP(p UserProgress, earned int, now time.Time) UserProgress {
	if !c.SameDay(p.LastUpdated, now) {
		p.DailyXP = 0
		p.DailyGoalMet = false
	}
	if !c.SameWeek(p.LastUpdated, now) {
		p.WeeklyXP = 0
		p.WeeklyGoalMet = false
	}
	if !c.SameMonth(p.LastUpdated, now) {
		p.MonthlyXP = 0
		p.MonthlyGoalMet = false
	}

	p.DailyXP += earned
	p.WeeklyXP += earned
	p.MonthlyXP += earned
	p.LastUpdated = now
	return p
}

// MarkGoals raises the goal flags whose bucket has reached the goal's target.
// Flags are never lowered here; only a period rollover clears them.
func (p UserProgress) MarkGoals(goal LearningGoal) UserProgress {
	if p.DailyXP >= goal.DailyGoalXP() {
		p.DailyGoalMet = true
	}
	if p.WeeklyXP >= goal.WeeklyGoalXP() {
		p.WeeklyGoalMet = true
	}
	if p.MonthlyXP >= goal.MonthlyGoalXP() {
		p.MonthlyGoalMet = true
	}
	return p
}

// DailyGoalProgress returns DailyXP as a fraction of the daily goal, capped at 1.
func (p UserProgress) DailyGoalProgress(goal LearningGoal) float64 {
	return ratio(p.DailyXP, goal.DailyGoalXP())
}

// ratio returns n/d capped to [0,1], or 0 when d is not positive.
func ratio(n, d int) float64 {
	if d <= 0 || n <= 0 {
		return 0
	}
	return min(1.0, float64(n)/float64(d))
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// XPPerLevel is the amount of XP that separates two consecutive levels.
const XPPerLevel = 100

// LearningGoal is the daily commitment a user picked during onboarding.
type LearningGoal string

const (
	GoalCasual    LearningGoal = "casual"
	GoalRegular   LearningGoal = "regular"
	GoalIntensive LearningGoal = "intensive"
	GoalFluent    LearningGoal = "fluent"
)

// LearningGoals lists every goal in increasing order of effort.
var LearningGoals = []LearningGoal{GoalCasual, GoalRegular, GoalIntensive, GoalFluent}

// ParseLearningGoal validates s as a learning goal.
func ParseLearningGoal(s string) (LearningGoal, error) {
	g := LearningGoal(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(LearningGoals, g) {
		return "", fmt.Errorf("%w: unknown learning goal %q", ErrInvalidInput, s)
	}
	return g, nil
}

// DailyGoalXP returns the XP target for one day. Unknown goals fall back to regular.
func (g LearningGoal) DailyGoalXP() int {
	switch g {
	case GoalCasual:
		return 20
	case GoalIntensive:
		return 100
	case GoalFluent:
		return 200
	default:
		return 50
	}
}

// DailyGoalMinutes returns the practice time suggested for one day.
func (g LearningGoal) DailyGoalMinutes() int {
	switch g {
	case GoalCasual:
		return 5
	case GoalIntensive:
		return 30
	case GoalFluent:
		return 60
	default:
		return 15
	}
}

func (g LearningGoal) WeeklyGoalXP() int  { return g.DailyGoalXP() * 7 }
func (g LearningGoal) MonthlyGoalXP() int { return g.DailyGoalXP() * 30 }

// LevelForXP maps lifetime XP to a level, starting at 1.
func LevelForXP(totalXP int) int {
	return max(1, totalXP/XPPerLevel+1)
}

// User is the single learner whose progress the app tracks.
type User struct {
	ID                 uuid.UUID    `json:"id"`
	Name               string       `json:"name"`
	Email              string       `json:"email"`
	TotalXP            int          `json:"total_xp"`
	CurrentLevel       int          `json:"current_level"`
	CurrentStreak      int          `json:"current_streak"`
	LongestStreak      int          `json:"longest_streak"`
	StreakStartDate    time.Time    `json:"streak_start_date"`
	JoinDate           time.Time    `json:"join_date"`
	LastActiveDate     time.Time    `json:"last_active_date"`
	PreferredLanguages []string     `json:"preferred_languages"`
	LearningGoal       LearningGoal `json:"learning_goal"`
	CompletedLessons   []string     `json:"completed_lessons"`
	PerfectScores      int          `json:"perfect_scores"`
	CorrectAnswers     int          `json:"correct_answers"`
}

// NewUser creates a level 1 user who joined at now. The streak stays empty
// until the first recorded activity.
func NewUser(name, email string, languages []string, goal LearningGoal, now time.Time) User {
	return User{
		ID:                 uuid.New(),
		Name:               strings.TrimSpace(name),
		Email:              strings.TrimSpace(email),
		CurrentLevel:       1,
		JoinDate:           now,
		PreferredLanguages: normalizeLanguages(languages),
		LearningGoal:       goal,
		CompletedLessons:   []string{},
	}
}

// Validate checks the fields a user must carry before onboarding completes.
func (u User) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(u.PreferredLanguages) == 0 {
		return fmt.Errorf("%w: at least one language is required", ErrInvalidInput)
	}
	return nil
}

// AddXP increases lifetime XP and recomputes the level.
func (u *User) AddXP(n int) {
	u.TotalXP += n
	u.CurrentLevel = LevelForXP(u.TotalXP)
}

// HasCompleted reports whether lessonID is in the completed set.
func (u User) HasCompleted(lessonID string) bool {
	return lo.Contains(u.CompletedLessons, lessonID)
}

// MarkCompleted adds lessonID to the completed set. It returns false when the
// lesson was already there.
func (u *User) MarkCompleted(lessonID string) bool {
	if u.HasCompleted(lessonID) {
		return false
	}
	u.CompletedLessons = append(u.CompletedLessons, lessonID)
	return true
}

// SetLanguages replaces the preferred languages, dropping blanks and duplicates.
func (u *User) SetLanguages(languages []string) {
	u.PreferredLanguages = normalizeLanguages(languages)
}

// Streak extracts the streak fields.
func (u User) Streak() StreakState {
	return StreakState{
		Current:        u.CurrentStreak,
		Longest:        u.LongestStreak,
		LastActiveDate: u.LastActiveDate,
		StartDate:      u.StreakStartDate,
	}
}

// SetStreak writes s back into the user.
func (u *User) SetStreak(s StreakState) {
	u.CurrentStreak = s.Current
	u.LongestStreak = s.Longest
	u.LastActiveDate = s.LastActiveDate
	u.StreakStartDate = s.StartDate
}

// XPToNextLevel returns how much XP is missing to reach the next level.
func (u User) XPToNextLevel() int {
	return u.CurrentLevel*XPPerLevel - u.TotalXP
}

// LevelProgress returns progress through the current level in [0,1).
func (u User) LevelProgress() float64 {
	return float64(u.TotalXP%XPPerLevel) / XPPerLevel
}

// Clone returns a deep copy so callers cannot alias the slices.
func (u User) Clone() User {
	u.PreferredLanguages = append([]string(nil), u.PreferredLanguages...)
	u.CompletedLessons = append([]string(nil), u.CompletedLessons...)
	return u
}

func normalizeLanguages(languages []string) []string {
	trimmed := lo.Map(languages, func(l string, _ int) string { return strings.TrimSpace(l) })
	return lo.Uniq(lo.Compact(trimmed))
}

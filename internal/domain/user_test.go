package domain

import (
	"errors"
	"testing"
	"time"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{105, 2},
		{999, 10},
		{-50, 1},
	}
	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d; want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLearningGoal_Targets(t *testing.T) {
	tests := []struct {
		goal    LearningGoal
		daily   int
		minutes int
	}{
		{GoalCasual, 20, 5},
		{GoalRegular, 50, 15},
		{GoalIntensive, 100, 30},
		{GoalFluent, 200, 60},
		{"", 50, 15},
	}
	for _, tt := range tests {
		if got := tt.goal.DailyGoalXP(); got != tt.daily {
			t.Errorf("%q.DailyGoalXP() = %d; want %d", tt.goal, got, tt.daily)
		}
		if got := tt.goal.DailyGoalMinutes(); got != tt.minutes {
			t.Errorf("%q.DailyGoalMinutes() = %d; want %d", tt.goal, got, tt.minutes)
		}
	}
	if got := GoalCasual.WeeklyGoalXP(); got != 140 {
		t.Errorf("WeeklyGoalXP() = %d; want 140", got)
	}
}

func TestParseLearningGoal(t *testing.T) {
	g, err := ParseLearningGoal(" Intensive ")
	if err != nil {
		t.Fatalf("ParseLearningGoal() error = %v", err)
	}
	if g != GoalIntensive {
		t.Errorf("ParseLearningGoal() = %q; want %q", g, GoalIntensive)
	}

	if _, err := ParseLearningGoal("heroic"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseLearningGoal(heroic) error = %v; want ErrInvalidInput", err)
	}
}

func TestNewUser(t *testing.T) {
	now := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	u := NewUser("  Ana ", "ana@example.com", []string{"es", " es", "", "fr"}, GoalRegular, now)

	if u.Name != "Ana" {
		t.Errorf("Name = %q; want Ana", u.Name)
	}
	if u.CurrentLevel != 1 || u.TotalXP != 0 {
		t.Errorf("level/xp = %d/%d; want 1/0", u.CurrentLevel, u.TotalXP)
	}
	if len(u.PreferredLanguages) != 2 {
		t.Errorf("PreferredLanguages = %v; want [es fr]", u.PreferredLanguages)
	}
	if !u.JoinDate.Equal(now) || !u.LastActiveDate.IsZero() {
		t.Errorf("JoinDate = %v, LastActiveDate = %v; want join at now, no activity", u.JoinDate, u.LastActiveDate)
	}
	if err := u.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestUser_Validate(t *testing.T) {
	if err := (User{PreferredLanguages: []string{"es"}}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing name: error = %v; want ErrInvalidInput", err)
	}
	if err := (User{Name: "Ana"}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing languages: error = %v; want ErrInvalidInput", err)
	}
}

func TestUser_AddXPAndLevel(t *testing.T) {
	u := User{TotalXP: 95, CurrentLevel: 1}
	u.AddXP(10)

	if u.TotalXP != 105 || u.CurrentLevel != 2 {
		t.Errorf("xp/level = %d/%d; want 105/2", u.TotalXP, u.CurrentLevel)
	}
	if got := u.XPToNextLevel(); got != 95 {
		t.Errorf("XPToNextLevel() = %d; want 95", got)
	}
	if got := u.LevelProgress(); got != 0.05 {
		t.Errorf("LevelProgress() = %v; want 0.05", got)
	}
}

func TestUser_MarkCompleted(t *testing.T) {
	var u User
	if !u.MarkCompleted("l1") {
		t.Error("first MarkCompleted() = false; want true")
	}
	if u.MarkCompleted("l1") {
		t.Error("second MarkCompleted() = true; want false")
	}
	if len(u.CompletedLessons) != 1 {
		t.Errorf("CompletedLessons = %v; want one entry", u.CompletedLessons)
	}
}

func TestUser_CloneDoesNotAlias(t *testing.T) {
	u := User{CompletedLessons: []string{"a"}, PreferredLanguages: []string{"es"}}
	c := u.Clone()
	c.CompletedLessons[0] = "b"
	c.PreferredLanguages[0] = "fr"

	if u.CompletedLessons[0] != "a" || u.PreferredLanguages[0] != "es" {
		t.Error("Clone() shares backing arrays with the original")
	}
}

package domain

import (
	"errors"
	"testing"
)

func TestQuestion_Accepts(t *testing.T) {
	q := Question{CorrectAnswer: "Buenos días"}

	tests := []struct {
		answer string
		want   bool
	}{
		{"Buenos días", true},
		{"buenos DÍAS", true},
		{"Buenos dias", false},
		{"Buenos días ", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := q.Accepts(tt.answer); got != tt.want {
			t.Errorf("Accepts(%q) = %v; want %v", tt.answer, got, tt.want)
		}
	}
}

func TestQuestion_Validate(t *testing.T) {
	valid := Question{ID: "q1", Prompt: "Hello?", CorrectAnswer: "Hola"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	for _, q := range []Question{
		{Prompt: "p", CorrectAnswer: "a"},
		{ID: "q", CorrectAnswer: "a"},
		{ID: "q", Prompt: "p"},
	} {
		if err := q.Validate(); !errors.Is(err, ErrInvalidQuestion) {
			t.Errorf("Validate(%+v) error = %v; want ErrInvalidQuestion", q, err)
		}
	}
}

func TestScoreAndEarnedXP(t *testing.T) {
	tests := []struct {
		correct, total, reward int
		wantScore, wantXP      int
	}{
		{2, 3, 30, 66, 19},
		{3, 3, 25, 100, 25},
		{0, 3, 25, 0, 0},
		{0, 0, 40, 0, 0},
		{1, 3, 50, 33, 16},
	}
	for _, tt := range tests {
		score := ScorePercent(tt.correct, tt.total)
		if score != tt.wantScore {
			t.Errorf("ScorePercent(%d, %d) = %d; want %d", tt.correct, tt.total, score, tt.wantScore)
		}
		if xp := EarnedXP(tt.reward, score); xp != tt.wantXP {
			t.Errorf("EarnedXP(%d, %d) = %d; want %d", tt.reward, score, xp, tt.wantXP)
		}
	}
}

func TestLessonProgress_Ratios(t *testing.T) {
	var empty LessonProgress
	if empty.CompletionPercentage() != 0 || empty.Accuracy() != 0 {
		t.Error("empty progress should report zero ratios")
	}

	p := LessonProgress{CurrentQuestionIndex: 2, CorrectAnswers: 1, TotalQuestions: 4}
	if got := p.CompletionPercentage(); got != 0.5 {
		t.Errorf("CompletionPercentage() = %v; want 0.5", got)
	}
	if got := p.Accuracy(); got != 0.5 {
		t.Errorf("Accuracy() = %v; want 0.5", got)
	}
}

func TestLessonResult_Perfect(t *testing.T) {
	if (LessonResult{}).Perfect() {
		t.Error("empty result reported as perfect")
	}
	if !(LessonResult{CorrectAnswers: 3, TotalQuestions: 3}).Perfect() {
		t.Error("3/3 not reported as perfect")
	}
}

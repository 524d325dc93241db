package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType describes how a question is presented.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionFillInBlank    QuestionType = "fill_in_blank"
	QuestionTranslation    QuestionType = "translation"
	QuestionListening      QuestionType = "listening"
	QuestionSpeaking       QuestionType = "speaking"
	QuestionMatching       QuestionType = "matching"
)

// Difficulty is the level a lesson targets.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

// Question is a single prompt with one accepted answer.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Type          QuestionType `json:"type" yaml:"type"`
	Prompt        string       `json:"prompt" yaml:"prompt"`
	Options       []string     `json:"options,omitempty" yaml:"options"`
	CorrectAnswer string       `json:"correct_answer" yaml:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty" yaml:"explanation"`
	AudioURL      string       `json:"audio_url,omitempty" yaml:"audio_url"`
}

// Accepts reports whether answer matches the correct answer, ignoring case.
// Empty answers never match.
func (q Question) Accepts(answer string) bool {
	if answer == "" {
		return false
	}
	return strings.EqualFold(answer, q.CorrectAnswer)
}

// Validate checks that the question can be judged.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	if q.Prompt == "" {
		return fmt.Errorf("%w: %s has no prompt", ErrInvalidQuestion, q.ID)
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("%w: %s has no correct answer", ErrInvalidQuestion, q.ID)
	}
	return nil
}

// Lesson is an ordered list of questions with an XP reward.
type Lesson struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Language         string     `json:"language"`
	Difficulty       Difficulty `json:"difficulty"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	XPReward         int        `json:"xp_reward"`
	ModuleID         string     `json:"module_id"`
	Order            int        `json:"order"`
	Locked           bool       `json:"locked"`
	Questions        []Question `json:"questions"`
}

// Module groups lessons for one language.
type Module struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	IconName    string   `json:"icon_name"`
	Color       string   `json:"color"`
	Lessons     []Lesson `json:"lessons"`
}

// LessonProgress is the state of one attempt at a lesson.
type LessonProgress struct {
	AttemptID            uuid.UUID  `json:"attempt_id"`
	LessonID             string     `json:"lesson_id"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	CorrectAnswers       int        `json:"correct_answers"`
	TotalQuestions       int        `json:"total_questions"`
	Attempts             int        `json:"attempts"`
	Score                int        `json:"score"`
	IsCompleted          bool       `json:"is_completed"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// NewLessonProgress starts a zeroed attempt.
func NewLessonProgress(lesson Lesson, now time.Time) LessonProgress {
	return LessonProgress{
		AttemptID:      uuid.New(),
		LessonID:       lesson.ID,
		TotalQuestions: len(lesson.Questions),
		StartedAt:      now,
	}
}

// CompletionPercentage is the share of questions already answered, in [0,1].
func (p LessonProgress) CompletionPercentage() float64 {
	return ratio(p.CurrentQuestionIndex, p.TotalQuestions)
}

// Accuracy is the share of answered questions that were correct, in [0,1].
func (p LessonProgress) Accuracy() float64 {
	return ratio(p.CorrectAnswers, p.CurrentQuestionIndex)
}

// ScorePercent returns correct*100/total truncated, or 0 for an empty lesson.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return correct * 100 / total
}

// EarnedXP scales reward by a percentage score, rounding down.
func EarnedXP(reward, score int) int {
	if reward <= 0 || score <= 0 {
		return 0
	}
	return reward * score / 100
}

// LessonResult is what a finished attempt reports to the progress store.
type LessonResult struct {
	LessonID       string    `json:"lesson_id"`
	AttemptID      uuid.UUID `json:"attempt_id"`
	Score          int       `json:"score"`
	XPEarned       int       `json:"xp_earned"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
}

// Perfect reports whether every question was answered correctly.
func (r LessonResult) Perfect() bool {
	return r.TotalQuestions > 0 && r.CorrectAnswers == r.TotalQuestions
}

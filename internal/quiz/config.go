package quiz

import (
	"fmt"
	"strings"
	"time"
)

// SkipPolicy decides how a skipped question is judged.
type SkipPolicy string

const (
	// SkipIncorrect judges a skipped question as answered wrong.
	SkipIncorrect SkipPolicy = "incorrect"
	// SkipCorrect submits the question's own answer, so skipping always scores.
	SkipCorrect SkipPolicy = "correct"
)

// ParseSkipPolicy validates s as a skip policy. Empty means SkipIncorrect.
func ParseSkipPolicy(s string) (SkipPolicy, error) {
	switch p := SkipPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return SkipIncorrect, nil
	case SkipIncorrect, SkipCorrect:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSkipPolicy, s)
	}
}

// Config holds session timing and scoring knobs.
type Config struct {
	QuestionTimeLimit time.Duration
	TickInterval      time.Duration
	FeedbackDelay     time.Duration
	SkipPolicy        SkipPolicy
}

// DefaultConfig returns a 30 second countdown ticking once a second with a
// 2 second feedback pause.
func DefaultConfig() Config {
	return Config{
		QuestionTimeLimit: 30 * time.Second,
		TickInterval:      time.Second,
		FeedbackDelay:     2 * time.Second,
		SkipPolicy:        SkipIncorrect,
	}
}

// withDefaults fills unusable fields from DefaultConfig. A zero FeedbackDelay
// is kept and means the next question shows immediately.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.QuestionTimeLimit <= 0 {
		c.QuestionTimeLimit = def.QuestionTimeLimit
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.FeedbackDelay < 0 {
		c.FeedbackDelay = 0
	}
	if c.SkipPolicy == "" {
		c.SkipPolicy = def.SkipPolicy
	}
	return c
}

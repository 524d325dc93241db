package domain

import "time"

// StreakState is the part of a user that tracks consecutive active days.
type StreakState struct {
	Current        int       `json:"current"`
	Longest        int       `json:"longest"`
	LastActiveDate time.Time `json:"last_active_date"`
	StartDate      time.Time `json:"start_date"`
}

// UpdateStreak records activity at now.
//
// Activity on the same day as LastActiveDate changes nothing. Activity on the
// following day extends the streak. Anything else, including a clock that
// went backwards, starts a new streak of one.
func (c Calendar) UpdateStreak(s StreakState, now time.Time) StreakState {
	if s.LastActiveDate.IsZero() {
		s.Current = 1
		s.Longest = max(s.Longest, s.Current)
		s.StartDate = now
		s.LastActiveDate = now
		return s
	}

	switch days := c.DaysBetween(s.LastActiveDate, now); days {
	case 0:
		return s
	case 1:
		s.Current++
		s.Longest = max(s.Longest, s.Current)
	default:
		s.Current = 1
		s.Longest = max(s.Longest, s.Current)
		s.StartDate = now
	}
	s.LastActiveDate = now
	return s
}

// DaysUntilStreakBreaks reports how many calendar days remain before an
// inactive user loses the streak: 2 when already active today, 1 when last
// active yesterday, 0 when the streak is already gone.
func (c Calendar) DaysUntilStreakBreaks(s StreakState, now time.Time) int {
	if s.Current == 0 || s.LastActiveDate.IsZero() {
		return 0
	}
	switch c.DaysBetween(s.LastActiveDate, now) {
	case 0:
		return 2
	case 1:
		return 1
	default:
		return 0
	}
}

// IsStreakActive reports whether the streak is still alive at now.
func (c Calendar) IsStreakActive(s StreakState, now time.Time) bool {
	return c.DaysUntilStreakBreaks(s, now) > 0
}

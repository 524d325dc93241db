package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// AggregateID returns the ID of the aggregate that produced this event
	AggregateID() uuid.UUID
	// AggregateType returns the type of aggregate that produced this event
	AggregateType() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateUUID uuid.UUID `json:"aggregate_id"`
	AggregateName string    `json:"aggregate_type"`
}

// NewBaseEvent creates a new BaseEvent stamped at now.
func NewBaseEvent(eventType, aggregateType string, aggregateID uuid.UUID, now time.Time) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     now,
		AggregateUUID: aggregateID,
		AggregateName: aggregateType,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.AggregateUUID }
func (e BaseEvent) AggregateType() string  { return e.AggregateName }

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

type subscription struct {
	id      uint64
	handler EventHandler
}

// EventDispatcher delivers events synchronously to subscribers.
// Handlers run on the publisher's goroutine outside the dispatcher lock, so a
// handler may subscribe, unsubscribe or publish without deadlocking.
type EventDispatcher struct {
	mu          sync.RWMutex
	nextID      uint64
	handlers    map[string][]subscription
	allHandlers []subscription
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]subscription),
	}
}

// Subscribe registers a handler for a specific event type. The returned func
// removes it again.
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.handlers[eventType] = append(d.handlers[eventType], subscription{id: id, handler: handler})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.handlers[eventType] = without(d.handlers[eventType], id)
	}
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.allHandlers = append(d.allHandlers, subscription{id: id, handler: handler})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.allHandlers = without(d.allHandlers, id)
	}
}

// Publish dispatches an event to all registered handlers
func (d *EventDispatcher) Publish(event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	typed := append([]subscription(nil), d.handlers[event.EventType()]...)
	all := append([]subscription(nil), d.allHandlers...)
	d.mu.RUnlock()

	for _, s := range typed {
		s.handler(event)
	}
	for _, s := range all {
		s.handler(event)
	}
}

// PublishAll dispatches multiple events
func (d *EventDispatcher) PublishAll(events []Event) {
	for _, event := range events {
		d.Publish(event)
	}
}

func without(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Event Types
// -----------------------------------------------------------------------------

const (
	EventUserUpdated         = "user.updated"
	EventProgressUpdated     = "progress.updated"
	EventAchievementsUpdated = "achievements.updated"
	EventAchievementUnlocked = "achievement.unlocked"
	EventLevelUp             = "level.up"
	EventStreakUpdated       = "streak.updated"
	EventLessonCompleted     = "lesson.completed"
	EventAccountDeleted      = "account.deleted"
	EventOnboardingCompleted = "onboarding.completed"
	EventQuizStateChanged    = "quiz.state_changed"
	EventQuizTimerTick       = "quiz.timer_tick"
	EventQuizAnswerJudged    = "quiz.answer_judged"
	EventQuizCompleted       = "quiz.completed"
)

// -----------------------------------------------------------------------------
// Progress Events
// -----------------------------------------------------------------------------

// UserUpdatedEvent carries a snapshot of the user after a mutation.
type UserUpdatedEvent struct {
	BaseEvent
	User User `json:"user"`
}

func NewUserUpdatedEvent(user User, now time.Time) UserUpdatedEvent {
	return UserUpdatedEvent{
		BaseEvent: NewBaseEvent(EventUserUpdated, "User", user.ID, now),
		User:      user.Clone(),
	}
}

// ProgressUpdatedEvent carries the XP buckets after a mutation.
type ProgressUpdatedEvent struct {
	BaseEvent
	Progress UserProgress `json:"progress"`
}

func NewProgressUpdatedEvent(userID uuid.UUID, progress UserProgress, now time.Time) ProgressUpdatedEvent {
	return ProgressUpdatedEvent{
		BaseEvent: NewBaseEvent(EventProgressUpdated, "User", userID, now),
		Progress:  progress,
	}
}

// AchievementsUpdatedEvent carries the full achievement list after a mutation.
type AchievementsUpdatedEvent struct {
	BaseEvent
	Achievements []Achievement `json:"achievements"`
}

func NewAchievementsUpdatedEvent(userID uuid.UUID, achievements []Achievement, now time.Time) AchievementsUpdatedEvent {
	return AchievementsUpdatedEvent{
		BaseEvent:    NewBaseEvent(EventAchievementsUpdated, "User", userID, now),
		Achievements: append([]Achievement(nil), achievements...),
	}
}

// AchievementUnlockedEvent is published once per newly unlocked achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	Achievement Achievement `json:"achievement"`
}

func NewAchievementUnlockedEvent(userID uuid.UUID, a Achievement, now time.Time) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:   NewBaseEvent(EventAchievementUnlocked, "User", userID, now),
		Achievement: a,
	}
}

// LevelUpEvent is published when the level increases.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

func NewLevelUpEvent(userID uuid.UUID, oldLevel, newLevel int, now time.Time) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, "User", userID, now),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// StreakUpdatedEvent is published when recorded activity changes the streak.
type StreakUpdatedEvent struct {
	BaseEvent
	Streak StreakState `json:"streak"`
}

func NewStreakUpdatedEvent(userID uuid.UUID, s StreakState, now time.Time) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent: NewBaseEvent(EventStreakUpdated, "User", userID, now),
		Streak:    s,
	}
}

// LessonCompletedEvent is published the first time a lesson is completed.
type LessonCompletedEvent struct {
	BaseEvent
	LessonID string `json:"lesson_id"`
	XPEarned int    `json:"xp_earned"`
}

func NewLessonCompletedEvent(userID uuid.UUID, lessonID string, xpEarned int, now time.Time) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventLessonCompleted, "User", userID, now),
		LessonID:  lessonID,
		XPEarned:  xpEarned,
	}
}

// AccountDeletedEvent is published after the account data was wiped.
type AccountDeletedEvent struct {
	BaseEvent
}

func NewAccountDeletedEvent(userID uuid.UUID, now time.Time) AccountDeletedEvent {
	return AccountDeletedEvent{BaseEvent: NewBaseEvent(EventAccountDeleted, "User", userID, now)}
}

// OnboardingCompletedEvent is published when onboarding finishes.
type OnboardingCompletedEvent struct {
	BaseEvent
}

func NewOnboardingCompletedEvent(userID uuid.UUID, now time.Time) OnboardingCompletedEvent {
	return OnboardingCompletedEvent{BaseEvent: NewBaseEvent(EventOnboardingCompleted, "User", userID, now)}
}

// -----------------------------------------------------------------------------
// Quiz Events
// -----------------------------------------------------------------------------

// QuizStateChangedEvent is published on every quiz state transition.
type QuizStateChangedEvent struct {
	BaseEvent
	LessonID string `json:"lesson_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Index    int    `json:"index"`
}

func NewQuizStateChangedEvent(attemptID uuid.UUID, lessonID, from, to string, index int, now time.Time) QuizStateChangedEvent {
	return QuizStateChangedEvent{
		BaseEvent: NewBaseEvent(EventQuizStateChanged, "Quiz", attemptID, now),
		LessonID:  lessonID,
		From:      from,
		To:        to,
		Index:     index,
	}
}

// QuizTimerTickEvent is published every countdown tick.
type QuizTimerTickEvent struct {
	BaseEvent
	Index     int           `json:"index"`
	Remaining time.Duration `json:"remaining"`
}

func NewQuizTimerTickEvent(attemptID uuid.UUID, index int, remaining time.Duration, now time.Time) QuizTimerTickEvent {
	return QuizTimerTickEvent{
		BaseEvent: NewBaseEvent(EventQuizTimerTick, "Quiz", attemptID, now),
		Index:     index,
		Remaining: remaining,
	}
}

// QuizAnswerJudgedEvent is published after each submitted answer.
type QuizAnswerJudgedEvent struct {
	BaseEvent
	QuestionID  string `json:"question_id"`
	Answer      string `json:"answer"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

func NewQuizAnswerJudgedEvent(attemptID uuid.UUID, q Question, answer string, correct bool, now time.Time) QuizAnswerJudgedEvent {
	return QuizAnswerJudgedEvent{
		BaseEvent:   NewBaseEvent(EventQuizAnswerJudged, "Quiz", attemptID, now),
		QuestionID:  q.ID,
		Answer:      answer,
		Correct:     correct,
		Explanation: q.Explanation,
	}
}

// QuizCompletedEvent is published once per finished attempt.
type QuizCompletedEvent struct {
	BaseEvent
	Result LessonResult `json:"result"`
}

func NewQuizCompletedEvent(result LessonResult, now time.Time) QuizCompletedEvent {
	return QuizCompletedEvent{
		BaseEvent: NewBaseEvent(EventQuizCompleted, "Quiz", result.AttemptID, now),
		Result:    result,
	}
}

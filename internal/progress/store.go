// Package progress owns the signed-in learner's XP, streak and achievements
// and persists them through a storage.KV.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/storage"
)

// Store is the single writer for user, progress and achievement state.
//
// Every mutator runs under one mutex, persists after mutating, and publishes
// its events synchronously once the lock is released. Mutators called while
// no user is signed in return nil without touching anything.
type Store struct {
	mu sync.Mutex

	kv      storage.KV
	cal     domain.Calendar
	now     func() time.Time
	logger  *slog.Logger
	events  *domain.EventDispatcher
	catalog []domain.Achievement

	user         *domain.User
	progress     domain.UserProgress
	achievements []domain.Achievement
	onboarded    bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCalendar sets the calendar used for day, week and month boundaries.
func WithCalendar(c domain.Calendar) Option {
	return func(s *Store) { s.cal = c }
}

// WithEvents sets the dispatcher that receives change notifications.
func WithEvents(d *domain.EventDispatcher) Option {
	return func(s *Store) { s.events = d }
}

// WithAchievementCatalog replaces the built-in achievement definitions.
func WithAchievementCatalog(catalog []domain.Achievement) Option {
	return func(s *Store) { s.catalog = slices.Clone(catalog) }
}

// Open builds a Store on kv and loads any persisted state.
func Open(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, ErrNoStorage
	}

	s := &Store{
		kv:      kv,
		now:     time.Now,
		logger:  slog.Default(),
		events:  domain.NewEventDispatcher(),
		catalog: domain.DefaultAchievements(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Events returns the dispatcher the store publishes to.
func (s *Store) Events() *domain.EventDispatcher {
	return s.events
}

// Load replaces in-memory state with the persisted snapshots. Missing or
// undecodable snapshots fall back to defaults; backend failures are returned
// so a transient outage never gets overwritten with empty state.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()

	now := s.now()
	s.resetLocked(now)

	var user domain.User
	found, err := s.loadKey(ctx, storage.KeyUser, &user)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if found {
		user.CurrentLevel = domain.LevelForXP(user.TotalXP)
		if user.CompletedLessons == nil {
			user.CompletedLessons = []string{}
		}
		s.user = &user
	}

	var progress domain.UserProgress
	found, err = s.loadKey(ctx, storage.KeyProgress, &progress)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if found {
		s.progress = progress
	}

	var achievements []domain.Achievement
	found, err = s.loadKey(ctx, storage.KeyAchievements, &achievements)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if found {
		s.achievements = domain.MergeAchievements(s.catalog, achievements)
	}

	var onboarded bool
	if _, err := s.loadKey(ctx, storage.KeyOnboardingCompleted, &onboarded); err != nil {
		s.mu.Unlock()
		return err
	}
	s.onboarded = onboarded

	if s.user == nil {
		s.mu.Unlock()
		s.logger.Debug("no persisted user")
		return nil
	}
	s.logger.Info("loaded progress", "user_id", s.user.ID, "level", s.user.CurrentLevel, "total_xp", s.user.TotalXP)

	// Achievements can lag behind the user when a previous run stopped between
	// writes; one cascade brings them back in line.
	tx := s.begin(now)
	tx.cascade()
	return s.commit(ctx, tx)
}

func (s *Store) loadKey(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("discarding corrupt snapshot", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Store) resetLocked(now time.Time) {
	s.user = nil
	s.progress = domain.NewUserProgress(now)
	s.achievements = domain.ResetAchievements(s.catalog)
	s.onboarded = false
}

// User returns a copy of the signed-in user.
func (s *Store) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return s.user.Clone(), true
}

// Progress returns the XP buckets as last written.
func (s *Store) Progress() domain.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Achievements returns a copy of every achievement with its current state.
func (s *Store) Achievements() []domain.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.achievements)
}

// HasCompletedOnboarding reports whether onboarding finished for this device.
func (s *Store) HasCompletedOnboarding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onboarded
}

// -----------------------------------------------------------------------------
// Mutation plumbing
// -----------------------------------------------------------------------------

// txn collects what a mutation touched so commit can write exactly those keys
// and publish the matching events.
type txn struct {
	s      *Store
	now    time.Time
	events []domain.Event

	userDirty         bool
	progressDirty     bool
	achievementsDirty bool
	onboardingDirty   bool
}

func (s *Store) begin(now time.Time) *txn {
	return &txn{s: s, now: now}
}

// mutate runs fn under the lock for the signed-in user and commits the result.
func (s *Store) mutate(ctx context.Context, op string, fn func(tx *txn)) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		s.logger.Debug("ignoring mutation without a signed-in user", "op", op)
		return nil
	}
	tx := s.begin(s.now())
	fn(tx)
	return s.commit(ctx, tx)
}

// commit persists the dirty keys, releases the lock and publishes events.
// Write errors are returned but do not roll back memory.
func (s *Store) commit(ctx context.Context, tx *txn) error {
	var errs []error
	userID := s.userIDLocked()

	if tx.userDirty && s.user != nil {
		errs = append(errs, s.saveLocked(ctx, storage.KeyUser, s.user))
		tx.events = append(tx.events, domain.NewUserUpdatedEvent(*s.user, tx.now))
	}
	if tx.progressDirty {
		errs = append(errs, s.saveLocked(ctx, storage.KeyProgress, s.progress))
		tx.events = append(tx.events, domain.NewProgressUpdatedEvent(userID, s.progress, tx.now))
	}
	if tx.achievementsDirty {
		errs = append(errs, s.saveLocked(ctx, storage.KeyAchievements, s.achievements))
		tx.events = append(tx.events, domain.NewAchievementsUpdatedEvent(userID, s.achievements, tx.now))
	}
	if tx.onboardingDirty {
		errs = append(errs, s.saveLocked(ctx, storage.KeyOnboardingCompleted, s.onboarded))
	}
	s.mu.Unlock()

	s.events.PublishAll(tx.events)

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("persist progress", "error", err)
		return err
	}
	return nil
}

func (s *Store) saveLocked(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) userIDLocked() uuid.UUID {
	if s.user != nil {
		return s.user.ID
	}
	return uuid.Nil
}

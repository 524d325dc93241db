package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/storage"
)

// Profile holds the user-editable account fields.
type Profile struct {
	Name      string
	Email     string
	Languages []string
	Goal      domain.LearningGoal
}

// CreateUser signs in a brand new user with zeroed progress.
func (s *Store) CreateUser(ctx context.Context, p Profile) (domain.User, error) {
	goal := domain.GoalRegular
	if p.Goal != "" {
		parsed, err := domain.ParseLearningGoal(string(p.Goal))
		if err != nil {
			return domain.User{}, err
		}
		goal = parsed
	}

	s.mu.Lock()
	if s.user != nil {
		s.mu.Unlock()
		return domain.User{}, domain.ErrUserExists
	}

	now := s.now()
	user := domain.NewUser(p.Name, p.Email, p.Languages, goal, now)
	if err := user.Validate(); err != nil {
		s.mu.Unlock()
		return domain.User{}, err
	}

	s.resetLocked(now)
	s.user = &user

	tx := s.begin(now)
	tx.userDirty = true
	tx.progressDirty = true
	tx.onboardingDirty = true
	tx.cascade()
	created := user.Clone()
	s.logger.Info("user created", "user_id", user.ID, "goal", goal, "languages", user.PreferredLanguages)

	if err := s.commit(ctx, tx); err != nil {
		return created, err
	}
	return created, nil
}

// UpdateProfile changes name, email, languages and goal. Empty fields keep
// their current value.
func (s *Store) UpdateProfile(ctx context.Context, p Profile) error {
	var goal domain.LearningGoal
	if p.Goal != "" {
		parsed, err := domain.ParseLearningGoal(string(p.Goal))
		if err != nil {
			return err
		}
		goal = parsed
	}

	var invalid error
	err := s.mutate(ctx, "update_profile", func(tx *txn) {
		next := tx.s.user.Clone()
		if p.Name != "" {
			next.Name = p.Name
		}
		if p.Email != "" {
			next.Email = p.Email
		}
		if p.Languages != nil {
			next.SetLanguages(p.Languages)
		}
		if p.Goal != "" {
			next.LearningGoal = goal
		}
		if invalid = next.Validate(); invalid != nil {
			return
		}

		*tx.s.user = next
		tx.userDirty = true
		tx.cascade()
	})
	if invalid != nil {
		return invalid
	}
	return err
}

// CompleteOnboarding records that the signed-in user finished onboarding.
func (s *Store) CompleteOnboarding(ctx context.Context) error {
	var invalid error
	err := s.mutate(ctx, "complete_onboarding", func(tx *txn) {
		if invalid = tx.s.user.Validate(); invalid != nil {
			return
		}
		if tx.s.onboarded {
			return
		}
		tx.s.onboarded = true
		tx.onboardingDirty = true
		tx.events = append(tx.events, domain.NewOnboardingCompletedEvent(tx.s.user.ID, tx.now))
	})
	if invalid != nil {
		return invalid
	}
	return err
}

// SignOut drops the in-memory session. Persisted data stays and is picked up
// again by Load.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(s.now())
}

// DeleteAccount wipes memory and every persisted key. Running it again, or
// with nobody signed in, is harmless.
func (s *Store) DeleteAccount(ctx context.Context) error {
	s.mu.Lock()
	now := s.now()
	userID := uuid.Nil
	if s.user != nil {
		userID = s.user.ID
	}
	s.resetLocked(now)

	var errs []error
	for _, key := range storage.AllKeys {
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	s.mu.Unlock()

	if userID != uuid.Nil {
		s.logger.Info("account deleted", "user_id", userID)
		s.events.Publish(domain.NewAccountDeletedEvent(userID, now))
	}
	return errors.Join(errs...)
}

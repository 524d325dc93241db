// Package storage defines the key-value port the progress store persists
// through, plus an in-memory implementation and a resilience decorator.
package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("invalid key")
)

// Keys used by the progress store.
const (
	KeyUser                = "user"
	KeyProgress            = "progress"
	KeyAchievements        = "achievements"
	KeyOnboardingCompleted = "onboarding_complete"
)

// AllKeys lists every key the progress store owns.
var AllKeys = []string{KeyUser, KeyProgress, KeyAchievements, KeyOnboardingCompleted}

// KV is a byte-oriented key-value store.
//
// Get returns ErrNotFound for a missing key. Delete of a missing key succeeds.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Memory is a KV kept in process memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ KV = (*Memory)(nil)

// NewMemory returns an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

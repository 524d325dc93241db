// Package storagetest holds the behaviour every storage.KV backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/lexiquest/internal/storage"
)

// Run exercises kv against the storage.KV contract. newKV must return an
// empty store.
func Run(t *testing.T, newKV func(t *testing.T) storage.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		kv := newKV(t)
		_, err := kv.Get(ctx, storage.KeyUser)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, storage.KeyProgress, []byte(`{"daily_xp":10}`)))

		got, err := kv.Get(ctx, storage.KeyProgress)
		require.NoError(t, err)
		assert.JSONEq(t, `{"daily_xp":10}`, string(got))
	})

	t.Run("set overwrites", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, storage.KeyOnboardingCompleted, []byte("false")))
		require.NoError(t, kv.Set(ctx, storage.KeyOnboardingCompleted, []byte("true")))

		got, err := kv.Get(ctx, storage.KeyOnboardingCompleted)
		require.NoError(t, err)
		assert.Equal(t, "true", string(got))
	})

	t.Run("keys are independent", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, storage.KeyUser, []byte(`{"name":"a"}`)))
		require.NoError(t, kv.Set(ctx, storage.KeyAchievements, []byte(`[]`)))
		require.NoError(t, kv.Delete(ctx, storage.KeyUser))

		_, err := kv.Get(ctx, storage.KeyUser)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		got, err := kv.Get(ctx, storage.KeyAchievements)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(got))
	})

	t.Run("delete missing key", func(t *testing.T) {
		kv := newKV(t)
		assert.NoError(t, kv.Delete(ctx, storage.KeyUser))
		assert.NoError(t, kv.Delete(ctx, storage.KeyUser))
	})

	t.Run("returned bytes are a copy", func(t *testing.T) {
		kv := newKV(t)
		value := []byte(`"abc"`)
		require.NoError(t, kv.Set(ctx, storage.KeyUser, value))
		value[1] = 'z'

		got, err := kv.Get(ctx, storage.KeyUser)
		require.NoError(t, err)
		got[1] = 'y'

		again, err := kv.Get(ctx, storage.KeyUser)
		require.NoError(t, err)
		assert.Equal(t, `"abc"`, string(again))
	})
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Ping(ctx))

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, ProgressKey("abc"), `{"currentStep":2}`, time.Hour))
	v, err := s.Get(ctx, ProgressKey("abc"))
	require.NoError(t, err)
	assert.Equal(t, `{"currentStep":2}`, v)
	assert.Equal(t, time.Hour, mr.TTL(ProgressKey("abc")))

	mr.FastForward(2 * time.Hour)
	_, err = s.Get(ctx, ProgressKey("abc"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "a", "1", 0))
	require.NoError(t, s.Set(ctx, "b", "2", 0))
	require.NoError(t, s.Del(ctx, "a", "b"))
	assert.False(t, mr.Exists("a"))
	assert.NoError(t, s.Del(ctx))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, s.Set(ctx, "forever", "v", 0))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, 2, s.Len())

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Del(ctx, "forever"))
	_, err = s.Get(ctx, "forever")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemoryStore().Set(ctx, "k", "v", 0), context.Canceled)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "solar_onboarding:session:s1:progress", ProgressKey("s1"))
	assert.Equal(t, "solar_onboarding:session:s1:progress_meta", ProgressMetaKey("s1"))
	assert.Equal(t, "solar_onboarding:session:s1:image:idFront", ImageKey("s1", "idFront"))
	assert.Equal(t, "solar_onboarding:session:s1:image_meta:idFront", ImageMetaKey("s1", "idFront"))
	assert.Equal(t, "solar_onboarding:session:s1:images", ImageIndexKey("s1"))
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

type cachedPrincipal struct {
	UserID uint   `json:"user_id"`
	Type   string `json:"type"`
}

func TestTokenCache(t *testing.T) {
	mr, rdb := newTestClient(t)
	cache := NewTokenCache(rdb, time.Minute)
	ctx := context.Background()

	var got cachedPrincipal
	hit, err := cache.Get(ctx, "abc", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "abc", cachedPrincipal{UserID: 3, Type: "shop"}))
	hit, err = cache.Get(ctx, "abc", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, cachedPrincipal{UserID: 3, Type: "shop"}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = cache.Get(ctx, "abc", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "abc", cachedPrincipal{UserID: 3}))
	require.NoError(t, cache.Delete(ctx, "abc"))
	assert.False(t, mr.Exists("auth:abc"))
}

func TestLocker(t *testing.T) {
	mr, rdb := newTestClient(t)
	locker := NewLocker(rdb, time.Minute)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "shop:1")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "shop:1")
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := locker.Lock(ctx, "shop:2")
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists("lock:shop:1"))

	again, err := locker.Lock(ctx, "shop:1")
	require.NoError(t, err)
	again()
}

func TestLockerDoesNotReleaseForeignLock(t *testing.T) {
	mr, rdb := newTestClient(t)
	locker := NewLocker(rdb, time.Second)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "shop:1")
	require.NoError(t, err)

	// first holder expires and a second one takes over
	mr.FastForward(2 * time.Second)
	_, err = locker.Lock(ctx, "shop:1")
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists("lock:shop:1"))
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, err := locker.Lock(ctx, "shop:1")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "shop:1")
	assert.ErrorIs(t, err, ErrLockHeld)

	release()
	release()

	again, err := locker.Lock(ctx, "shop:1")
	require.NoError(t, err)
	again()
}

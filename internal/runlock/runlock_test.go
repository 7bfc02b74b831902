package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Minute), mr
}

func TestAcquireIsExclusive(t *testing.T) {
	l, _ := newLocker(t)
	ctx := context.Background()
	key := Key("STAGGERED_ROTATION", domain.ShiftMorning)

	lock, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lock.Release(ctx))

	again, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestReleaseDoesNotDeleteForeignLock(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()
	key := Key("STAGGERED_ROTATION", domain.ShiftEvening)

	lock, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	// 锁过期后被另一次生成拿到
	mr.FastForward(2 * time.Minute)
	other, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx))
	assert.True(t, mr.Exists(key))

	require.NoError(t, other.Release(ctx))
	assert.False(t, mr.Exists(key))
}

func TestAcquireAllRollsBack(t *testing.T) {
	l, mr := newLocker(t)
	ctx := context.Background()
	morning := Key("STAGGERED_ROTATION", domain.ShiftMorning)
	evening := Key("STAGGERED_ROTATION", domain.ShiftEvening)

	held, err := l.Acquire(ctx, evening)
	require.NoError(t, err)

	_, err = l.AcquireAll(ctx, morning, evening)
	require.ErrorIs(t, err, ErrLocked)
	assert.False(t, mr.Exists(morning))

	require.NoError(t, held.Release(ctx))

	locks, err := l.AcquireAll(ctx, morning, evening)
	require.NoError(t, err)
	assert.Len(t, locks, 2)
	ReleaseAll(ctx, locks)
	assert.False(t, mr.Exists(morning))
	assert.False(t, mr.Exists(evening))
}

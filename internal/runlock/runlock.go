package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("该轮换状态正在被另一次排班生成占用")

// 只有持有者（token 相同）才能释放，避免锁过期后误删别人的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Key 每个 (algorithm, shiftType) 轮换状态一把锁
func Key(algorithm string, shiftType domain.ShiftType) string {
	return fmt.Sprintf("rotation_lock_%s_%s", algorithm, shiftType)
}

type Locker struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func New(rdb redis.Cmdable, ttl time.Duration) *Locker {
	return &Locker{
		rdb: rdb,
		ttl: ttl,
	}
}

type Lock struct {
	rdb   redis.Cmdable
	key   string
	token string
}

// Acquire 锁已被占用时返回 ErrLocked
func (l *Locker) Acquire(ctx context.Context, key string) (*Lock, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}

	return &Lock{rdb: l.rdb, key: key, token: token}, nil
}

// AcquireAll 按顺序获取多把锁，任意一把失败都会释放已经拿到的锁
func (l *Locker) AcquireAll(ctx context.Context, keys ...string) ([]*Lock, error) {
	locks := make([]*Lock, 0, len(keys))
	for _, key := range keys {
		lock, err := l.Acquire(ctx, key)
		if err != nil {
			ReleaseAll(ctx, locks)
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, nil
}

func (lk *Lock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, lk.rdb, []string{lk.key}, lk.token).Err()
}

func ReleaseAll(ctx context.Context, locks []*Lock) {
	for _, lk := range locks {
		_ = lk.Release(ctx)
	}
}

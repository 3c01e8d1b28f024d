package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Locker is a best-effort redis lock (SETNX with TTL) used to keep the
// promotion tick single-flight across server instances. The TTL bounds how
// long a crashed holder can block the next tick.
type Locker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewLocker(client *redis.Client, key string, ttl time.Duration) *Locker {
	return &Locker{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Acquire takes the lock; false means another holder owns it.
func (l *Locker) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, 1, l.ttl).Result()
}

// Release frees the lock. Releasing a lock we no longer hold is harmless.
func (l *Locker) Release(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}

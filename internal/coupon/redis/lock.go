package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockKeyPrefix = "coupon_lock:"

// Lock serializes redemptions of one coupon code so the usage-cap check
// and the usage insert cannot race across requests.
type Lock struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewLock(client *redis.Client) *Lock {
	return &Lock{Client: client, TTL: 5 * time.Second}
}

// Acquire takes the lock for a code, retrying briefly before giving up.
func (l *Lock) Acquire(ctx context.Context, code string) (bool, error) {
	key := lockKeyPrefix + code
	deadline := time.Now().Add(l.TTL)
	for time.Now().Before(deadline) {
		ok, err := l.Client.SetNX(ctx, key, "1", l.TTL).Result()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false, nil
}

func (l *Lock) Release(ctx context.Context, code string) error {
	return l.Client.Del(ctx, lockKeyPrefix+code).Err()
}

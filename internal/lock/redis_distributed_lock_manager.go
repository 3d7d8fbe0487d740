package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLeaseTTL     = 5 * time.Minute
	defaultRetryBackoff = 200 * time.Millisecond
)

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDistributedLockManager holds leases as SET NX PX keys. A crashed holder's lease
// expires after the TTL.
type RedisDistributedLockManager struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	backoff   time.Duration

	mu     sync.Mutex
	tokens map[int]string
}

func NewRedisDistributedLockManager(client *redis.Client, ttl time.Duration) *RedisDistributedLockManager {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &RedisDistributedLockManager{
		client:    client,
		keyPrefix: "reportfire:lock:",
		ttl:       ttl,
		backoff:   defaultRetryBackoff,
		tokens:    make(map[int]string),
	}
}

func (l *RedisDistributedLockManager) key(lockID int) string {
	return fmt.Sprintf("%s%d", l.keyPrefix, lockID)
}

func (l *RedisDistributedLockManager) Acquire(ctx context.Context, lockID int) error {
	for {
		ok, err := l.TryAcquire(ctx, lockID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "failed to acquire lock %d", lockID)
		case <-time.After(l.backoff):
		}
	}
}

func (l *RedisDistributedLockManager) TryAcquire(ctx context.Context, lockID int) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(lockID), token, l.ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "failed to acquire lock %d", lockID)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[lockID] = token
	l.mu.Unlock()
	return true, nil
}

func (l *RedisDistributedLockManager) Release(ctx context.Context, lockID int) error {
	l.mu.Lock()
	token, ok := l.tokens[lockID]
	delete(l.tokens, lockID)
	l.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrNotHeld, "lock %d", lockID)
	}

	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key(lockID)}, token).Int()
	if err != nil {
		return errors.Wrapf(err, "failed to release lock %d", lockID)
	}
	if deleted == 0 {
		return errors.Wrapf(ErrNotHeld, "lease %d expired before release", lockID)
	}
	return nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when the wait for a lock runs out.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-taken by someone else is never released by mistake.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client    redis.Cmdable
	prefix    string
	pollEvery time.Duration
	newToken  func() string
}

// LockOption customises a LockStore
type LockOption func(*LockStore)

// WithTokenFunc overrides lock token generation.
func WithTokenFunc(fn func() string) LockOption {
	return func(s *LockStore) { s.newToken = fn }
}

// WithPollInterval sets how often a waiting caller retries.
func WithPollInterval(d time.Duration) LockOption {
	return func(s *LockStore) { s.pollEvery = d }
}

// NewLockStore creates a new LockStore. Keys are stored as "lock:<prefix>:<id>".
func NewLockStore(client redis.Cmdable, prefix string, opts ...LockOption) *LockStore {
	s := &LockStore{
		client:    client,
		prefix:    prefix,
		pollEvery: 25 * time.Millisecond,
		newToken:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the Redis key guarding id
func (s *LockStore) Key(id string) string {
	return fmt.Sprintf("lock:%s:%s", s.prefix, id)
}

// TryAcquire attempts a single SET NX PX. It returns the token to release
// with, or ok=false if the lock is held.
func (s *LockStore) TryAcquire(ctx context.Context, id string, ttl time.Duration) (token string, ok bool, err error) {
	token = s.newToken()
	ok, err = s.client.SetNX(ctx, s.Key(id), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Acquire polls until the lock is taken or ctx ends.
func (s *LockStore) Acquire(ctx context.Context, id string, ttl time.Duration) (string, error) {
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		token, ok, err := s.TryAcquire(ctx, id, ttl)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release frees the lock if token still owns it. It reports whether a key
// was deleted.
func (s *LockStore) Release(ctx context.Context, id, token string) (bool, error) {
	deleted, err := s.client.Eval(ctx, releaseScript, []string{s.Key(id)}, token).Int64()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

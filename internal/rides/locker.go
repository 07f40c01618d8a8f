package rides

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-lifecycle/pkg/logger"
	redisclient "github.com/richxcame/ride-lifecycle/pkg/redis"
)

// KeyedMutex is an in-process per-ride lock. Entries are dropped once no
// goroutine holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*keyedEntry)}
}

// Lock blocks until the ride's lock is free or ctx ends.
func (k *KeyedMutex) Lock(ctx context.Context, rideID uuid.UUID) (func(), error) {
	k.mu.Lock()
	entry, ok := k.locks[rideID]
	if !ok {
		entry = &keyedEntry{sem: make(chan struct{}, 1)}
		k.locks[rideID] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(rideID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			k.release(rideID, entry)
		})
	}, nil
}

func (k *KeyedMutex) release(rideID uuid.UUID, entry *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, rideID)
	}
}

// size reports the number of live entries
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// RedisLocker serializes a ride across service replicas
type RedisLocker struct {
	store *redisclient.LockStore
	ttl   time.Duration
}

// NewRedisLocker creates a locker whose leases expire after ttl
func NewRedisLocker(store *redisclient.LockStore, ttl time.Duration) *RedisLocker {
	return &RedisLocker{store: store, ttl: ttl}
}

// Lock acquires the ride's lease, polling until ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, rideID uuid.UUID) (func(), error) {
	id := rideID.String()
	token, err := l.store.Acquire(ctx, id, l.ttl)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The operation context may already be done; release on a fresh one.
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			released, err := l.store.Release(releaseCtx, id, token)
			if err != nil {
				logger.Warn("failed to release ride lock", zap.String("ride_id", id), zap.Error(err))
				return
			}
			if !released {
				logger.Warn("ride lock expired before release", zap.String("ride_id", id), zap.Duration("ttl", l.ttl))
			}
		})
	}, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/richxcame/ride-lifecycle/pkg/redis"
	"github.com/richxcame/ride-lifecycle/pkg/tracing"
)

const tracerName = "cache"

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Manager handles caching operations with JSON serialization
type Manager struct {
	redis redisclient.ClientInterface
}

// NewManager creates a new cache manager
func NewManager(redis redisclient.ClientInterface) *Manager {
	return &Manager{redis: redis}
}

// Get retrieves a cached value and unmarshals it into result.
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	var data string
	err := tracing.TraceRedisCommand(ctx, tracerName, "GET", key, func(ctx context.Context) error {
		var err error
		data, err = m.redis.GetString(ctx, key)
		return err
	})
	if redisclient.IsMiss(err) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return tracing.TraceRedisCommand(ctx, tracerName, "SET", key, func(ctx context.Context) error {
		return m.redis.SetWithExpiration(ctx, key, string(data), ttl)
	})
}

// SetVersioned caches value unless a copy with the same or a newer version
// is already cached. value must marshal to an object with a "version" field.
func (m *Manager) SetVersioned(ctx context.Context, key string, value interface{}, version int64, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}

	var written bool
	err = tracing.TraceRedisCommand(ctx, tracerName, "EVAL", key, func(ctx context.Context) error {
		var err error
		written, err = m.redis.SetIfNewer(ctx, key, string(data), version, ttl)
		return err
	})
	return written, err
}

// Delete removes keys from cache
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return tracing.TraceRedisCommand(ctx, tracerName, "DEL", keys[0], func(ctx context.Context) error {
		return m.redis.Delete(ctx, keys...)
	})
}

// CacheKeys defines cache key patterns
type CacheKeys struct{}

var Keys = CacheKeys{}

// Ride returns cache key for ride data
func (k CacheKeys) Ride(rideID string) string {
	return fmt.Sprintf("ride:%s", rideID)
}

// Route returns cache key for a routed distance between two coordinates.
// Coordinates are truncated to five decimals (about one metre).
func (k CacheKeys) Route(fromLat, fromLon, toLat, toLon float64) string {
	return fmt.Sprintf("route:%.5f,%.5f:%.5f,%.5f", fromLat, fromLon, toLat, toLon)
}

package redis

import (
	"context"
	"time"
)

// ClientInterface is the subset of Redis operations the cache depends on
type ClientInterface interface {
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetIfNewer(ctx context.Context, key, value string, version int64, expiration time.Duration) (bool, error)
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

var _ ClientInterface = (*Client)(nil)

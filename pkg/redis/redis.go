package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/richxcame/ride-lifecycle/pkg/config"
)

// Client wraps the Redis client
type Client struct {
	*redis.Client
}

// NewRedisClient creates a new Redis client and verifies the connection
func NewRedisClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return &Client{Client: client}, nil
}

// SetWithExpiration sets a key-value pair with expiration
func (c *Client) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.Set(ctx, key, value, expiration).Err()
}

// GetString gets a string value by key. A missing key returns redis.Nil.
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	return c.Get(ctx, key).Result()
}

// SetIfNewerScript writes ARGV[1] unless the JSON value already stored
// carries a "version" at or above ARGV[2].
const SetIfNewerScript = `
local current = redis.call("GET", KEYS[1])
if current then
	local ok, decoded = pcall(cjson.decode, current)
	if ok and type(decoded) == "table" then
		local stored = tonumber(decoded["version"])
		if stored and stored >= tonumber(ARGV[2]) then
			return 0
		end
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`

// SetIfNewer stores a JSON document with a top-level "version" field only
// when no document with the same or a higher version is stored. It reports
// whether the value was written.
func (c *Client) SetIfNewer(ctx context.Context, key, value string, version int64, expiration time.Duration) (bool, error) {
	written, err := c.Eval(ctx, SetIfNewerScript, []string{key}, value, version, expiration.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// Delete deletes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.Del(ctx, keys...).Err()
}

// Ping checks the connection, used by the readiness probe
func (c *Client) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *Client) Close() error {
	return c.Client.Close()
}

// IsMiss reports whether err means the key does not exist
func IsMiss(err error) bool {
	return err == redis.Nil
}

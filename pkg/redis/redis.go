package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
)

// Client wraps the Redis connection.
// Used for trigger coalescing claims, rate limiting and the token blacklist.
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects to Redis and pings it.
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── Claims ──

// Claim sets key to value only if the key does not exist yet.
// On failure it returns false and the value currently stored.
func (c *Client) Claim(ctx context.Context, key, value string, ttl time.Duration) (bool, string, error) {
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, value, nil
	}

	current, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		// expired between SETNX and GET; one more try
		ok, err = c.rdb.SetNX(ctx, key, value, ttl).Result()
		if err != nil {
			return false, "", err
		}
		if ok {
			return true, value, nil
		}
		current, err = c.rdb.Get(ctx, key).Result()
	}
	if err != nil && !errors.Is(err, goredis.Nil) {
		return false, "", err
	}
	return false, current, nil
}

// swapScript replaces KEYS[1] with ARGV[2] only while it still holds ARGV[1].
var swapScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// Swap compare-and-swap on a claim. Returns false when the key no longer
// holds prev.
func (c *Client) Swap(ctx context.Context, key, prev, next string, ttl time.Duration) (bool, error) {
	n, err := swapScript.Run(ctx, c.rdb, []string{key}, prev, next, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Store sets key unconditionally with a fresh TTL.
func (c *Client) Store(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Release drops a claim.
func (c *Client) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// ── Rate limiting ──

// CheckRateLimit fixed-window counter. Returns false once limit is exceeded.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// ── Token blacklist ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken revokes a JWT ID for the rest of its lifetime.
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted reports whether the JWT ID was revoked.
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping health check
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

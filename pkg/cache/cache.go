package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL constants
const (
	TTLUser    = 10 * time.Minute
	TTLShort   = 1 * time.Minute
	TTLDefault = 5 * time.Minute
)

// Key prefixes
const (
	PrefixUser = "user:"
)

// ErrMiss is returned by Get when the key is absent or Redis is unavailable
var ErrMiss = errors.New("cache miss")

// Service Redis cache service interface
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	GetUser(ctx context.Context, username string, dest interface{}) error
	SetUser(ctx context.Context, username string, data interface{}) error
	InvalidateUser(ctx context.Context, username string) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis-backed cache. A nil client turns every call into a miss
// or a no-op so callers never need to branch on availability.
type redisCache struct {
	client *redis.Client
}

// NewService creates a cache service
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}

	return json.Unmarshal(data, dest)
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// ========================================
// user cache
// ========================================

func userKey(username string) string {
	return PrefixUser + username
}

func (c *redisCache) GetUser(ctx context.Context, username string, dest interface{}) error {
	return c.Get(ctx, userKey(username), dest)
}

func (c *redisCache) SetUser(ctx context.Context, username string, data interface{}) error {
	return c.Set(ctx, userKey(username), data, TTLUser)
}

func (c *redisCache) InvalidateUser(ctx context.Context, username string) error {
	return c.Delete(ctx, userKey(username))
}

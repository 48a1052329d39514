package cache

import (
	"context"
	"encoding/json"
	"time"

	"velure/internal/domain/entity"
	"velure/internal/errors"

	"github.com/redis/go-redis/v9"
)

// redisCmdable is the subset of the go-redis client the cache uses.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisTokenCache shares validations between service instances.
type RedisTokenCache struct {
	client redisCmdable
	prefix string
}

// NewRedisTokenCache wraps client; keys are namespaced with prefix.
func NewRedisTokenCache(client redisCmdable, prefix string) *RedisTokenCache {
	return &RedisTokenCache{client: client, prefix: prefix}
}

func (c *RedisTokenCache) Get(ctx context.Context, token string) (*entity.User, bool, error) {
	raw, err := c.client.Get(ctx, tokenKey(c.prefix, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get token")
	}

	var cached cachedUser
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, errors.Wrap(err, "decode cached user")
	}

	return cached.toUser(), true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, token string, user *entity.User, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(fromUser(user))
	if err != nil {
		return errors.Wrap(err, "encode cached user")
	}

	if err := c.client.Set(ctx, tokenKey(c.prefix, token), raw, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set token")
	}

	return nil
}

func (c *RedisTokenCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, tokenKey(c.prefix, token)).Err(); err != nil {
		return errors.Wrap(err, "redis delete token")
	}

	return nil
}

func (c *RedisTokenCache) Close() error {
	return errors.WithStack(c.client.Close())
}

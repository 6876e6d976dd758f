package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss: в кэше нет профиля.
var ErrCacheMiss = redis.Nil

// Cache: кэш профилей. Invalidate вызывает движок кейсов после открытия.
type Cache interface {
	Get(ctx context.Context, userID int64) (*Profile, error)
	Set(ctx context.Context, p *Profile) error
	Invalidate(ctx context.Context, userID int64) error
}

// RedisCache хранит профиль JSON-строкой с TTL.
type RedisCache struct {
	client     redis.Cmdable
	expiration time.Duration
}

// NewRedisCache создаёт кэш поверх клиента Redis.
func NewRedisCache(client redis.Cmdable, expiration time.Duration) *RedisCache {
	return &RedisCache{client: client, expiration: expiration}
}

func (c *RedisCache) Get(ctx context.Context, userID int64) (*Profile, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("битый профиль в кэше: %w", err)
	}
	return &p, nil
}

func (c *RedisCache) Set(ctx context.Context, p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(p.UserID), data, c.expiration).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *RedisCache) key(userID int64) string {
	return fmt.Sprintf("casebot:profile:%d", userID)
}

// NopCache: кэша нет: всегда промах.
type NopCache struct{}

func (NopCache) Get(context.Context, int64) (*Profile, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, *Profile) error          { return nil }
func (NopCache) Invalidate(context.Context, int64) error      { return nil }

// IsMiss: ошибка означает промах кэша.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

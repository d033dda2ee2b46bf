package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"civicfix/internal/domain/entity"
	"civicfix/pkg/config"
	"civicfix/pkg/logger"
)

const (
	sessionKeyPrefix = "session:"
	guardKeyPrefix   = "guard:"
)

// NewRedis returns a connected client, or nil when no address is configured.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("Connected to Redis at %s", cfg.Addr)
	return client, nil
}

// RedisSessionCache stores resolved roles under session:<uid>.
type RedisSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionCache(client *redis.Client, ttl time.Duration) *RedisSessionCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionCache{client: client, ttl: ttl}
}

func (c *RedisSessionCache) GetRole(ctx context.Context, userID string) (entity.Role, bool, error) {
	val, err := c.client.Get(ctx, sessionKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role := entity.Role(val)
	if !role.Valid() {
		return "", false, nil
	}
	return role, true, nil
}

func (c *RedisSessionCache) SetRole(ctx context.Context, userID string, role entity.Role) error {
	return c.client.Set(ctx, sessionKeyPrefix+userID, string(role), c.ttl).Err()
}

func (c *RedisSessionCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, sessionKeyPrefix+userID).Err()
}

// RedisGuard shares the in-progress guard across API instances.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, guardKeyPrefix+key, 1, ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, key string) {
	if err := g.client.Del(ctx, guardKeyPrefix+key).Err(); err != nil {
		logger.Warn("Failed to release guard %s: %v", key, err)
	}
}

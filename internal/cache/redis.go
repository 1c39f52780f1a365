package cache

import (
	"context"
	"time"

	"cleaning-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache holds short-lived reconciliation locks keyed by payment reference.
type RedisCache struct {
	client  *redis.Client
	lockTTL time.Duration
	log     *zap.Logger
}

func NewRedisCache(cfg utils.RedisConfig, log *zap.Logger) *RedisCache {
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		lockTTL: cfg.LockTTL,
		log:     log.With(zap.String("component", "redis")),
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// AcquireReferenceLock returns false when another reconciler holds the reference.
func (c *RedisCache) AcquireReferenceLock(ctx context.Context, reference string) (bool, error) {
	ok, err := c.client.SetNX(ctx, referenceLockKey(reference), "locked", c.lockTTL).Result()
	if err != nil {
		c.log.Warn("Failed to acquire reference lock",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return false, err
	}
	return ok, nil
}

func (c *RedisCache) ReleaseReferenceLock(ctx context.Context, reference string) error {
	return c.client.Del(ctx, referenceLockKey(reference)).Err()
}

func referenceLockKey(reference string) string {
	return "lock:payment:" + reference
}

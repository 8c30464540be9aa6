package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ufsoft/screener/internal/pkg/config"
)

var client *redis.Client

// SetupCache connects to the configured redis compatible server. It returns
// nil when no cache is configured; callers fall back to direct writes.
func SetupCache(ctx context.Context, cfg config.Cache) *redis.Client {
	if !cfg.Enabled() {
		log.Info("[Cache] No cache configured, running without redis")
		client = nil
		return nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if pong, err := client.Ping(ctx).Result(); err != nil {
		log.Warnf("[Cache] Could not connect to cache: %v", err)
	} else {
		log.Infof("[Cache] Successfully connected to cache: %s", pong)
	}
	return client
}

// GetClient returns the redis client, or nil when running without a cache.
func GetClient() *redis.Client {
	return client
}

// Set stores a value with the given expiration. Without a cache it is a no-op.
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if client == nil {
		return nil
	}
	return client.Set(ctx, key, value, expiration).Err()
}

// GetInt64 retrieves an integer value; redis.Nil is returned on a miss or
// when no cache is configured.
func GetInt64(ctx context.Context, key string) (int64, error) {
	if client == nil {
		return 0, redis.Nil
	}
	return client.Get(ctx, key).Int64()
}

// Delete removes a value from the cache by key
func Delete(ctx context.Context, keys ...string) error {
	if client == nil {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}

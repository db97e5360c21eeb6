package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retrace-app/retrace/pkg/config"
)

// RedisStore implements Store on a Redis backend.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (rs *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := rs.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (rs *RedisStore) Set(ctx context.Context, key string, value string, expiration time.Duration) {
	// Best effort: a failed cache write only costs a recount later.
	_ = rs.client.Set(ctx, key, value, expiration).Err()
}

func (rs *RedisStore) Delete(ctx context.Context, key string) {
	_ = rs.client.Del(ctx, key).Err()
}

// Close releases the underlying connection pool.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

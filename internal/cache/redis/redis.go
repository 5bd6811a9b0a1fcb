package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aniladanir/retry"
	"github.com/go-redis/redis/v8"
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new redis cache that complies with cache interface
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	rClient := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	retrier, err := retry.New(retry.WithMaxAttemps(5))
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	// retry ping
	var pingErr error
	ping := func(attempt int) (terminate bool) {
		pingErr = rClient.Ping(ctx).Err()
		return pingErr == nil
	}
	if ok := <-retrier.Retry(ctx, ping, true); !ok || pingErr != nil {
		rClient.Close()
		if pingErr == nil {
			pingErr = ctx.Err()
		}
		return nil, fmt.Errorf("failed to ping redis instance: %w", pingErr)
	}

	return &RedisCache{
		client: rClient,
	}, nil
}

func (r *RedisCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

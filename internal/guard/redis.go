package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const reservationPrefix = "resv:slot:"

// RedisGuard keeps reservations as Redis keys so that multiple API nodes
// share one admission state. A reservation has no expiry: it is released
// explicitly on cancellation. SETNX gives the per-key atomicity.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) TryReserve(ctx context.Context, key Key) error {
	ok, err := g.client.SetNX(ctx, reservationPrefix+key.String(), "1", 0).Result()
	if err != nil {
		return fmt.Errorf("reserve booking key: %w", err)
	}
	if !ok {
		return ErrKeyReserved
	}
	return nil
}

func (g *RedisGuard) Release(ctx context.Context, key Key) error {
	if err := g.client.Del(ctx, reservationPrefix+key.String()).Err(); err != nil {
		return fmt.Errorf("release booking key: %w", err)
	}
	return nil
}

// NewRedisClient dials Redis and verifies connectivity before returning.
func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

package storage

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Redis implements KV on top of a Redis client. Values are stored as
// sonic-encoded JSON with no expiry; Redis persistence configuration
// decides durability.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed KV adapter.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("storage.NewRedis: client is nil")
	}
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string, out any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val any) error {
	data, err := sonic.Marshal(val)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// responses namespace keeps endpoint payloads apart from the refresh
// queue and result cache sharing the same Redis.
const keyPrefix = "sentipull:resp:"

// RedisCache is the BytesCache implementation backing multi-instance
// deployments, where every replica should serve the same cached
// response.
type RedisCache struct {
	cli *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisCache{cli: rdb}
}

func (r *RedisCache) GetBytes(key string) ([]byte, bool, error) {
	b, err := r.cli.Get(context.Background(), keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(context.Background(), keyPrefix+key, value, ttl).Err()
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipe-catalog/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisCache 以 Redis 儲存模型回應
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache 創建 Redis 緩存；client 由呼叫端管理
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get 獲取緩存
func (s *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss("redis")
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	common.LogCacheHit("redis")
	return val, nil
}

// Set 設置緩存
func (s *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 連線由建立者關閉
func (s *RedisCache) Close() error {
	return nil
}

func (s *RedisCache) key(k string) string {
	return fmt.Sprintf("%s:ai:response:%s", s.prefix, k)
}

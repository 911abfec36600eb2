// Package redis 提供行情缓存的 Redis 实现
package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/edutrading/pkg/cache"
)

// MarketCache 基于 Redis 的行情缓存
type MarketCache struct {
	cache  *cache.RedisCache
	prefix string
}

// NewMarketCache 创建行情缓存
func NewMarketCache(c *cache.RedisCache) *MarketCache {
	return &MarketCache{
		cache:  c,
		prefix: "marketdata:",
	}
}

// Get 读取缓存并反序列化，返回是否命中
func (m *MarketCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return m.cache.GetJSON(ctx, m.prefix+key, dest)
}

// Set 写入缓存
func (m *MarketCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.cache.SetJSON(ctx, m.prefix+key, value, ttl)
}

// Delete 删除缓存项
func (m *MarketCache) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = m.prefix + key
	}
	return m.cache.Delete(ctx, prefixed...)
}

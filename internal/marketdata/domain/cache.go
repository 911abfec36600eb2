package domain

import (
	"context"
	"time"
)

// 缓存时长策略
const (
	QuoteCacheTTL  = 60 * time.Second
	SearchCacheTTL = time.Hour
)

// CacheStore 行情缓存，实现方负责序列化与过期管理
// 读写失败由调用方降级处理，不应中断业务请求
type CacheStore interface {
	// Get 读取缓存并反序列化到 dest，返回是否命中
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set 写入缓存并设置过期时间
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete 删除缓存项
	Delete(ctx context.Context, keys ...string) error
}

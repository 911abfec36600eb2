// Package memory 提供行情缓存的进程内实现，Redis 未启用时作为降级方案
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// MarketCache 进程内行情缓存，到期即失效并惰性清理
type MarketCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMarketCache 创建进程内缓存
func NewMarketCache() *MarketCache {
	return &MarketCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewMarketCacheWithClock 创建使用指定时钟的缓存，测试用
func NewMarketCacheWithClock(now func() time.Time) *MarketCache {
	return &MarketCache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get 读取缓存并反序列化，过期视为未命中并删除
func (m *MarketCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set 写入缓存
func (m *MarketCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[key] = entry{
		data:      data,
		expiresAt: m.now().Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

// Delete 删除缓存项
func (m *MarketCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}

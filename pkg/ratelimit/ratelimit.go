// Package ratelimit 提供基于 Redis 的分布式限流，底层使用 GCRA 算法
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// Limit 限流规则，Burst 为窗口内允许的突发量
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// PerSecond 构造每秒限流规则，突发量等于速率
func PerSecond(rate int) Limit {
	return Limit{Rate: rate, Period: time.Second, Burst: rate}
}

// Result 单次限流判定结果
type Result struct {
	// Allowed 本次请求是否放行
	Allowed bool
	// Remaining 当前窗口剩余配额
	Remaining int
	// ResetAfter 配额完全恢复所需时间
	ResetAfter time.Duration
	// RetryAfter 被拒绝时建议的重试间隔
	RetryAfter time.Duration
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// RedisRateLimiter 基于 Redis 的限流器，多实例共享配额
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter 创建限流器
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{limiter: redis_rate.NewLimiter(rdb)}
}

// Allow 判定 key 在给定规则下是否放行
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

// Package ratelimit 提供按 (操作者, 操作类型) 计数的固定窗口限流。
//
// 计数存储可以是进程内分片 map（单实例，重启丢失）或 Redis（多实例共享）。
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Policy 单个操作类型的限流策略
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision 限流判定结果
type Decision struct {
	Allowed    bool
	Action     string
	Count      int64
	Limit      int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store 固定窗口计数存储
//
// Hit 将 key 的计数加一并返回加一后的计数与窗口重置时间。
// 窗口第一次命中时 resetAt = now + window，到期后原子地重新开始。
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter 按操作类型配置策略的限流器
type Limiter struct {
	store    Store
	policies map[string]Policy
	now      func() time.Time
}

// NewLimiter 创建限流器，未配置策略的操作类型不受限制
func NewLimiter(store Store, policies map[string]Policy) *Limiter {
	copied := make(map[string]Policy, len(policies))
	for action, p := range policies {
		copied[action] = p
	}
	return &Limiter{store: store, policies: copied, now: time.Now}
}

// Policy 返回操作类型的策略
func (l *Limiter) Policy(action string) (Policy, bool) {
	p, ok := l.policies[action]
	return p, ok
}

// Allow 判断 actorID 是否还能执行 action
//
// 存储出错时返回 Allowed=true 以及错误，由调用方决定是否记录。
func (l *Limiter) Allow(ctx context.Context, actorID, action string) (Decision, error) {
	policy, ok := l.policies[action]
	if !ok || policy.Limit <= 0 {
		return Decision{Allowed: true, Action: action}, nil
	}

	count, resetAt, err := l.store.Hit(ctx, Key(actorID, action), policy.Window)
	if err != nil {
		return Decision{Allowed: true, Action: action, Limit: policy.Limit}, err
	}

	d := Decision{
		Allowed: count <= int64(policy.Limit),
		Action:  action,
		Count:   count,
		Limit:   policy.Limit,
		ResetAt: resetAt,
	}
	if !d.Allowed {
		d.RetryAfter = resetAt.Sub(l.now())
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
	}
	return d, nil
}

// Key 构造计数键，转义分隔符避免用户可控的 ID 跨越到相邻的计数桶
func Key(actorID, action string) string {
	return "ratelimit:" + sanitize(action) + ":" + sanitize(actorID)
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

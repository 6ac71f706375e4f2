package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 第一次计数时设置过期时间，INCR 与 PEXPIRE 在同一脚本内原子执行
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore 基于 Redis 的固定窗口计数存储，多实例共享配额
type RedisStore struct {
	client redis.Scripter
	now    func() time.Time
}

// NewRedisStore 创建 Redis 计数存储
func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Hit 实现 Store
func (s *RedisStore) Hit(ctx context.Context, key string, ttl time.Duration) (int64, time.Time, error) {
	res, err := fixedWindowScript.Run(ctx, s.client, []string{key}, ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit hit: %w", err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("redis rate limit hit: unexpected reply %v", res)
	}
	return res[0], s.now().Add(time.Duration(res[1]) * time.Millisecond), nil
}

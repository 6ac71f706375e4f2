package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"noticeboard/pkg/logger"
)

const (
	cacheKeyPrefix = "announcements:"
	// 代数键不在清理范围内，失效时只递增
	cacheGenerationKey = "announcements_generation"
)

// DefaultCacheTTL 公告列表缓存时间
const DefaultCacheTTL = 5 * time.Minute

// AnnouncementCache 成员端公告列表缓存，client 为 nil 时不缓存
type AnnouncementCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewAnnouncementCache 创建公告缓存
func NewAnnouncementCache(client *redis.Client, ttl time.Duration, logger *logger.Logger) *AnnouncementCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &AnnouncementCache{client: client, ttl: ttl, logger: logger}
}

// Enabled 是否启用缓存
func (c *AnnouncementCache) Enabled() bool {
	return c != nil && c.client != nil
}

func publishedListKey(generation int64, role, viewerID string, page, pageSize int) string {
	return fmt.Sprintf("%spublished:%d:%s:%s:%d:%d", cacheKeyPrefix, generation, role, viewerID, page, pageSize)
}

// Generation 当前缓存代数，读取失败时返回 false，调用方应跳过缓存
func (c *AnnouncementCache) Generation(ctx context.Context) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	gen, err := c.client.Get(ctx, cacheGenerationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		c.logger.Warn("读取缓存代数失败", "error", err)
		return 0, false
	}
	return gen, true
}

// Get 读取缓存并反序列化到 dst，未命中返回 false
func (c *AnnouncementCache) Get(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("读取公告缓存失败", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Set 写入缓存
func (c *AnnouncementCache) Set(ctx context.Context, key string, v any) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("写入公告缓存失败", "key", key, "error", err)
	}
}

// Invalidate 递增缓存代数并删除旧的公告列表缓存。
// 失效前读取的数据即使随后写回，也落在旧代数的键上不会再被读取。
func (c *AnnouncementCache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Incr(ctx, cacheGenerationKey).Err(); err != nil {
		return err
	}
	var firstErr error
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Error("删除缓存失败", "key", iter.Val(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return firstErr
}

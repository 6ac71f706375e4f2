package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"noticeboard/config"

	"github.com/redis/go-redis/v9"
)

// redisPingTimeout 启动时连接检查的超时
const redisPingTimeout = 5 * time.Second

// RedisOptions 将配置转换为客户端参数，限流与缓存共用同一连接池
func RedisOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisPingTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	return opts
}

// NewRedisClient 创建Redis客户端并检查连接
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(RedisOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接Redis失败(%s db=%d): %w", client.Options().Addr, cfg.DB, err)
	}
	return client, nil
}

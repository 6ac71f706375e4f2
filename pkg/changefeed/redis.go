package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"noticeboard/pkg/logger"
)

// RedisPublisher 通过 Redis PUBLISH 广播变更事件，供多实例共享
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher 创建 Redis 发布者
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish 实现 Publisher
func (p *RedisPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// RedisRelay 订阅 Redis 频道并转发到本地 Hub
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *logger.Logger
}

// NewRedisRelay 创建 Redis 转发器
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *logger.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub, logger: logger}
}

// Run 阻塞运行直到 ctx 结束
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("变更事件转发已启动", "channel", r.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn("丢弃无法解析的变更事件", "error", err)
				continue
			}
			_ = r.hub.Publish(ctx, event)
		}
	}
}

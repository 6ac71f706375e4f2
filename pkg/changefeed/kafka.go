package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher 将变更事件写入 Kafka 主题，记录键为表名
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaPublisher 创建 Kafka 发布者
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka change feed: no brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka change feed: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

// Publish 实现 Publisher
func (p *KafkaPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Table),
		Value: data,
	}
	return p.client.ProduceSync(ctx, record).FirstErr()
}

// Close 刷新并关闭客户端
func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// Package changefeed 发布持久化写入产生的变更事件，供实时订阅方最终收敛到新状态。
//
// 不保证顺序，也不保证投递，只保证"最终可见"。
package changefeed

import (
	"context"
	"time"
)

// Kind 变更类型
type Kind string

const (
	KindInsert Kind = "INSERT"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

// ChangeEvent 一次持久化写入的变更事件
type ChangeEvent struct {
	Table  string    `json:"table"`
	Kind   Kind      `json:"event"`
	Before any       `json:"before,omitempty"`
	After  any       `json:"after,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher 变更事件发布者
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// PublisherFunc 函数适配器
type PublisherFunc func(ctx context.Context, event ChangeEvent) error

// Publish 实现 Publisher
func (f PublisherFunc) Publish(ctx context.Context, event ChangeEvent) error {
	return f(ctx, event)
}

// Multi 依次发布到多个 Publisher，返回第一个错误
func Multi(publishers ...Publisher) Publisher {
	return PublisherFunc(func(ctx context.Context, event ChangeEvent) error {
		var firstErr error
		for _, p := range publishers {
			if err := p.Publish(ctx, event); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}

package changefeed

import (
	"context"
	"sync"
	"sync/atomic"
)

// Hub 进程内的变更事件广播器
//
// 订阅者缓冲区满时丢弃事件，慢订阅者不会阻塞写入路径。
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscription
	nextID  uint64
	dropped atomic.Uint64
}

type subscription struct {
	ch     chan ChangeEvent
	tables map[string]struct{}
}

// NewHub 创建广播器
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscription)}
}

// Subscribe 订阅变更事件，tables 为空时订阅全部表
func (h *Hub) Subscribe(buffer int, tables ...string) (<-chan ChangeEvent, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	sub := &subscription{ch: make(chan ChangeEvent, buffer)}
	if len(tables) > 0 {
		sub.tables = make(map[string]struct{}, len(tables))
		for _, t := range tables {
			sub.tables[t] = struct{}{}
		}
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish 实现 Publisher
func (h *Hub) Publish(_ context.Context, event ChangeEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.tables != nil {
			if _, ok := sub.tables[event.Table]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- event:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers 当前订阅者数量
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped 因订阅者缓冲区满而丢弃的事件数
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

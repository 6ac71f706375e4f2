package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

type window struct {
	count   int64
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// MemoryStore 进程内分片计数存储
//
// 多实例部署时每个实例各自计数，限额退化为单实例配额。
type MemoryStore struct {
	shards [shardCount]*shard
	now    func() time.Time
}

// NewMemoryStore 创建内存计数存储
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock 使用指定时钟创建内存计数存储
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	s := &MemoryStore{now: now}
	for i := range s.shards {
		s.shards[i] = &shard{windows: make(map[string]*window)}
	}
	return s
}

// Hit 实现 Store
func (s *MemoryStore) Hit(_ context.Context, key string, ttl time.Duration) (int64, time.Time, error) {
	sh := s.shardFor(key)
	now := s.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(ttl)}
		sh.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Sweep 清理已过期的窗口，返回清理数量
func (s *MemoryStore) Sweep() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, w := range sh.windows {
			if !now.Before(w.resetAt) {
				delete(sh.windows, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len 当前窗口数量
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.windows)
		sh.mu.Unlock()
	}
	return n
}

// RunJanitor 定期清理过期窗口，直到 ctx 结束
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

package changefeed

import (
	"context"
	"time"

	"noticeboard/pkg/async"
	"noticeboard/pkg/logger"
)

// 单批事件的发布超时
const publishTimeout = 10 * time.Second

// Notifier 由存储层在写入成功后调用
type Notifier interface {
	Notify(events ...ChangeEvent)
}

// AsyncNotifier 将变更事件交给异步工作器发布，发布失败只记录日志
type AsyncNotifier struct {
	publisher Publisher
	worker    *async.Worker
	logger    *logger.Logger
	now       func() time.Time
}

// NewAsyncNotifier 创建异步通知器，worker 为 nil 时同步发布
func NewAsyncNotifier(publisher Publisher, worker *async.Worker, logger *logger.Logger) *AsyncNotifier {
	return &AsyncNotifier{publisher: publisher, worker: worker, logger: logger, now: time.Now}
}

// Notify 实现 Notifier
func (n *AsyncNotifier) Notify(events ...ChangeEvent) {
	if len(events) == 0 {
		return
	}
	now := n.now().UTC()
	for i := range events {
		if events[i].At.IsZero() {
			events[i].At = now
		}
	}

	if n.worker == nil {
		n.publishAll(context.Background(), events)
		return
	}

	_, err := n.worker.Submit(async.Task{
		Name:    "changefeed:" + events[0].Table,
		Timeout: publishTimeout,
		Handler: func(ctx context.Context) error {
			n.publishAll(ctx, events)
			return nil
		},
	})
	if err != nil {
		n.logger.Warn("变更事件入队失败，事件已丢弃", "table", events[0].Table, "count", len(events), "error", err)
	}
}

func (n *AsyncNotifier) publishAll(ctx context.Context, events []ChangeEvent) {
	failed := 0
	for _, event := range events {
		if err := n.publisher.Publish(ctx, event); err != nil {
			failed++
			if failed == 1 {
				n.logger.Warn("发布变更事件失败", "table", event.Table, "event", event.Kind, "error", err)
			}
		}
	}
	if failed > 1 {
		n.logger.Warn("部分变更事件发布失败", "failed", failed, "total", len(events))
	}
}

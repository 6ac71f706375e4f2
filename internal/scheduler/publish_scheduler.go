package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"noticeboard/internal/metrics"
	"noticeboard/internal/model"
	"noticeboard/internal/service"
	"noticeboard/pkg/logger"
)

// 单次调度最多发布的公告数
const defaultBatch = 50

// AnnouncementPublisher 定时发布依赖的公告操作
type AnnouncementPublisher interface {
	ListDue(ctx context.Context, limit int) ([]model.Announcement, error)
	Publish(ctx context.Context, actor model.Actor, id string) (*service.PublishResult, error)
}

// PublishScheduler 按 cron 表达式发布到期的定时公告
type PublishScheduler struct {
	publisher AnnouncementPublisher
	logger    *logger.Logger
	metrics   *metrics.Metrics
	cron      *cron.Cron
	batch     int
	timeout   time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewPublishScheduler 创建定时发布调度器，spec 支持可选秒字段与 @every 描述符
func NewPublishScheduler(publisher AnnouncementPublisher, spec string, logger *logger.Logger, m *metrics.Metrics) (*PublishScheduler, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	ctx, cancel := context.WithCancel(context.Background())
	s := &PublishScheduler{
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		batch:     defaultBatch,
		timeout:   time.Minute,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("无效的调度表达式 %q: %w", spec, err)
	}
	return s, nil
}

// Start 启动调度器
func (s *PublishScheduler) Start() {
	s.cron.Start()
	s.logger.Info("定时发布调度器启动")
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *PublishScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("定时发布调度器停止")
}

func (s *PublishScheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("定时发布失败", "error", err)
	}
}

// RunOnce 发布当前到期的公告，返回成功发布的数量
func (s *PublishScheduler) RunOnce(ctx context.Context) (int, error) {
	due, err := s.publisher.ListDue(ctx, s.batch)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, a := range due {
		res, err := s.publisher.Publish(ctx, model.SystemActor, a.ID)
		switch {
		case err == nil:
			published++
			s.metrics.ObserveScheduledPublish("ok")
			s.logger.Info("定时公告已发布", "id", a.ID, "notifications_created", res.NotificationsCreated)
		case service.IsCode(err, service.CodeRateLimited):
			// 剩余公告在下一次调度时重试
			s.metrics.ObserveScheduledPublish("rate_limited")
			s.logger.Warn("定时发布触发限流，等待下次调度", "id", a.ID, "remaining", len(due)-published)
			return published, nil
		case service.IsCode(err, service.CodeValidation), service.IsCode(err, service.CodeNotFound):
			// 期间被手动发布、归档或删除
			s.metrics.ObserveScheduledPublish("skipped")
			s.logger.Debug("跳过定时公告", "id", a.ID, "error", err)
		default:
			s.metrics.ObserveScheduledPublish("error")
			s.logger.Error("发布定时公告失败", "id", a.ID, "error", err)
		}
	}
	return published, nil
}

// Package app 组装存储、服务、调度器与 HTTP 服务器。
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"noticeboard/config"
	"noticeboard/internal/api"
	"noticeboard/internal/metrics"
	"noticeboard/internal/repository"
	"noticeboard/internal/scheduler"
	"noticeboard/internal/service"
	"noticeboard/pkg/async"
	"noticeboard/pkg/changefeed"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/ratelimit"
)

const (
	workerQueueSize = 256
	workerCount     = 4
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

// App 进程内全部组件
type App struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *sqlx.DB
	redis  *redis.Client

	Registry      *prometheus.Registry
	Hub           *changefeed.Hub
	Announcements *service.AnnouncementService
	Notifications *service.NotificationService
	Profiles      repository.ProfileRepository
	Router        *gin.Engine

	worker    *async.Worker
	memStore  *ratelimit.MemoryStore
	relay     *changefeed.RedisRelay
	kafka     *changefeed.KafkaPublisher
	scheduler *scheduler.PublishScheduler
}

// New 根据配置组装应用，redisClient 可为 nil
func New(cfg *config.Config, log *logger.Logger, db *sqlx.DB, redisClient *redis.Client) (*App, error) {
	a := &App{
		cfg:      cfg,
		logger:   log,
		db:       db,
		redis:    redisClient,
		Registry: prometheus.NewRegistry(),
		Hub:      changefeed.NewHub(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.Registry)

	a.worker = async.NewWorker(workerQueueSize, log)
	a.worker.Start(workerCount)

	publisher, err := a.changePublisher()
	if err != nil {
		a.worker.Stop()
		return nil, err
	}
	notifier := changefeed.NewAsyncNotifier(publisher, a.worker, log)

	store, err := a.rateLimitStore()
	if err != nil {
		a.worker.Stop()
		return nil, err
	}
	policies := make(map[string]ratelimit.Policy, len(cfg.RateLimit.Rules))
	for action, rule := range cfg.RateLimit.Rules {
		policies[action] = ratelimit.Policy{Limit: rule.Limit, Window: rule.Window}
	}
	limiter := ratelimit.NewLimiter(store, policies)

	// 存储库
	announcementRepo := repository.NewAnnouncementRepository(db, notifier)
	notificationRepo := repository.NewNotificationRepository(db, notifier, cfg.Fanout.BatchSize)
	auditRepo := repository.NewAuditRepository(db, notifier)
	a.Profiles = repository.NewProfileRepository(db)

	// 服务
	resolver := service.NewAudienceResolver(a.Profiles, log)
	dispatcher := service.NewFanoutDispatcher(notificationRepo, log, m)
	recorder := service.NewAuditRecorder(auditRepo, log, m)
	cache := service.NewAnnouncementCache(redisClient, cfg.CacheTTL, log)
	a.Announcements = service.NewAnnouncementService(announcementRepo, limiter, resolver, dispatcher, recorder, log,
		service.WithCache(cache),
		service.WithMetrics(m),
	)
	a.Notifications = service.NewNotificationService(notificationRepo, log)

	if cfg.Scheduler.Enabled {
		a.scheduler, err = scheduler.NewPublishScheduler(a.Announcements, cfg.Scheduler.Spec, log, m)
		if err != nil {
			a.worker.Stop()
			return nil, err
		}
	}

	a.Router = api.SetupRouter(log, api.Dependencies{
		JWTSecret:     cfg.JWTSecret,
		Debug:         cfg.LogLevel == "debug",
		Announcements: a.Announcements,
		Notifications: a.Notifications,
		Profiles:      a.Profiles,
		Hub:           a.Hub,
		Gatherer:      a.Registry,
		HealthCheck: func(c *gin.Context) error {
			return db.PingContext(c.Request.Context())
		},
	})
	return a, nil
}

// changePublisher 按配置选择变更事件的发布目标，本地 Hub 总能收到事件
func (a *App) changePublisher() (changefeed.Publisher, error) {
	cfg := a.cfg.ChangeFeed
	switch cfg.Backend {
	case "", "hub":
		return a.Hub, nil
	case "redis":
		if a.redis == nil {
			return nil, errors.New("CHANGEFEED_BACKEND=redis 需要配置 REDIS_HOST")
		}
		// 事件经 Redis 广播，由 relay 回灌到各实例的 Hub
		a.relay = changefeed.NewRedisRelay(a.redis, cfg.Channel, a.Hub, a.logger)
		return changefeed.NewRedisPublisher(a.redis, cfg.Channel), nil
	case "kafka":
		kp, err := changefeed.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("创建 Kafka 发布者失败: %w", err)
		}
		a.kafka = kp
		return changefeed.Multi(a.Hub, kp), nil
	default:
		return nil, fmt.Errorf("未知的 CHANGEFEED_BACKEND: %s", cfg.Backend)
	}
}

func (a *App) rateLimitStore() (ratelimit.Store, error) {
	switch a.cfg.RateLimit.Backend {
	case "", "memory":
		a.memStore = ratelimit.NewMemoryStore()
		return a.memStore, nil
	case "redis":
		if a.redis == nil {
			return nil, errors.New("RATE_LIMIT_BACKEND=redis 需要配置 REDIS_HOST")
		}
		return ratelimit.NewRedisStore(a.redis), nil
	default:
		return nil, fmt.Errorf("未知的 RATE_LIMIT_BACKEND: %s", a.cfg.RateLimit.Backend)
	}
}

// Run 启动 HTTP 服务器与后台任务，ctx 结束后优雅关闭
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.APIPort),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("服务器启动", "port", a.cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("启动服务器失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("正在关闭服务器...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if a.memStore != nil {
		g.Go(func() error { return a.memStore.RunJanitor(ctx, janitorInterval) })
	}
	if a.relay != nil {
		g.Go(func() error { return a.relay.Run(ctx) })
	}
	if a.scheduler != nil {
		a.scheduler.Start()
		g.Go(func() error {
			<-ctx.Done()
			a.scheduler.Stop()
			return nil
		})
	}

	return g.Wait()
}

// Close 释放后台资源，须在 Run 返回后调用
func (a *App) Close() {
	a.worker.Stop()
	if a.kafka != nil {
		a.kafka.Close()
	}
}

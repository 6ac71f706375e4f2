package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"noticeboard/config"
	"noticeboard/internal/app"
	"noticeboard/pkg/database"
	"noticeboard/pkg/logger"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 初始化日志
	logger := logger.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFile)
	defer logger.Close()

	// 初始化数据库连接
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("无法链接到数据库", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("数据库迁移失败", "error", err)
	}

	// Redis 可选，未配置时使用内存限流且不缓存
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("无法链接到Redis", "error", err)
		}
		defer redisClient.Close()
	}

	application, err := app.New(cfg, logger, db, redisClient)
	if err != nil {
		logger.Fatal("初始化应用失败", "error", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("服务器异常退出", "error", err)
		return
	}
	logger.Info("服务器已正常退出")
}

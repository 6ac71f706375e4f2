package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"noticeboard/internal/api/admin"
	"noticeboard/internal/api/apis"
	"noticeboard/internal/api/handler"
	"noticeboard/internal/middleware"
	"noticeboard/internal/repository"
	"noticeboard/internal/service"
	"noticeboard/pkg/changefeed"
	"noticeboard/pkg/logger"
)

// Dependencies 路由依赖
type Dependencies struct {
	JWTSecret     string
	Debug         bool
	Announcements *service.AnnouncementService
	Notifications *service.NotificationService
	Profiles      repository.ProfileRepository
	Hub           *changefeed.Hub
	Gatherer      prometheus.Gatherer
	// 返回 nil 表示健康
	HealthCheck func(c *gin.Context) error
}

// SetupRouter 设置API路由
func SetupRouter(logger *logger.Logger, deps Dependencies) *gin.Engine {
	if !deps.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(c); err != nil {
				logger.Warn("健康检查失败", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	announcementHandler := handler.NewAnnouncementHandler(deps.Announcements, logger)
	notificationHandler := handler.NewNotificationHandler(deps.Notifications, logger)
	announcementAdminHandler := admin.NewAnnouncementAdminHandler(deps.Announcements, logger)
	profileAdminHandler := admin.NewProfileAdminHandler(deps.Profiles, logger)
	changeFeedHandler := admin.NewChangeFeedHandler(deps.Hub, logger)

	// API版本v1，全部需要登录
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(deps.JWTSecret, deps.Profiles))
	apis.RegisterAuthRoutes(v1, announcementHandler, notificationHandler)

	adminRouter := v1.Group("/admin")
	adminRouter.Use(middleware.AdminOnly())
	admin.RegisterAdminRoutes(adminRouter, announcementAdminHandler, profileAdminHandler, changeFeedHandler)

	return router
}

package apis

import (
	"github.com/gin-gonic/gin"

	"noticeboard/internal/api/handler"
)

// RegisterAuthRoutes 注册需要登录的成员端路由
func RegisterAuthRoutes(router *gin.RouterGroup, announcementHandler *handler.AnnouncementHandler, notificationHandler *handler.NotificationHandler) {
	RegisterAnnouncementRoutes(router, announcementHandler)
	RegisterNotificationRoutes(router, notificationHandler)
}

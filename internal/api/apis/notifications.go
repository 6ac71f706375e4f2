package apis

import (
	"github.com/gin-gonic/gin"

	"noticeboard/internal/api/handler"
)

// RegisterNotificationRoutes 注册通知相关路由
func RegisterNotificationRoutes(router *gin.RouterGroup, notificationHandler *handler.NotificationHandler) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}
}

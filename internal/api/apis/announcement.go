package apis

import (
	"github.com/gin-gonic/gin"

	"noticeboard/internal/api/handler"
)

// RegisterAnnouncementRoutes 注册公告相关路由
func RegisterAnnouncementRoutes(router *gin.RouterGroup, announcementHandler *handler.AnnouncementHandler) {
	router.GET("/announcements", announcementHandler.GetAnnouncements)
}

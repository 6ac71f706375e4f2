package admin

import (
	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册管理员API路由，router 已挂载认证与管理员中间件
func RegisterAdminRoutes(router *gin.RouterGroup, announcementAdminHandler *AnnouncementAdminHandler, profileAdminHandler *ProfileAdminHandler, changeFeedHandler *ChangeFeedHandler) {
	// 公告管理路由
	announcements := router.Group("/announcements")
	{
		announcements.POST("", announcementAdminHandler.CreateAnnouncement)
		announcements.GET("", announcementAdminHandler.GetAdminAnnouncements)
		announcements.GET("/stats", announcementAdminHandler.GetStats)
		announcements.GET("/:id", announcementAdminHandler.GetAdminAnnouncementByID)
		announcements.PATCH("/:id", announcementAdminHandler.UpdateAnnouncement)
		announcements.DELETE("/:id", announcementAdminHandler.DeleteAnnouncement)
		announcements.POST("/:id/publish", announcementAdminHandler.PublishAnnouncement)
		announcements.POST("/:id/schedule", announcementAdminHandler.ScheduleAnnouncement)
		announcements.POST("/:id/archive", announcementAdminHandler.ArchiveAnnouncement)
		announcements.POST("/:id/republish", announcementAdminHandler.RepublishAnnouncement)
		announcements.GET("/:id/audit", announcementAdminHandler.GetAuditTrail)
	}

	router.GET("/profiles/search", profileAdminHandler.SearchProfiles)
	router.GET("/changes", changeFeedHandler.Stream)
}

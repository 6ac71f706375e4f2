package handler

import (
	"github.com/gin-gonic/gin"

	"noticeboard/internal/constants"
	"noticeboard/internal/service"
	"noticeboard/pkg/logger"
)

// AnnouncementHandler 成员端公告处理器
type AnnouncementHandler struct {
	announcementService *service.AnnouncementService
	logger              *logger.Logger
}

// NewAnnouncementHandler 创建公告处理器实例
func NewAnnouncementHandler(announcementService *service.AnnouncementService, logger *logger.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementService: announcementService,
		logger:              logger,
	}
}

// GetAnnouncements 获取当前成员可见的已发布公告
// @Summary 获取公告列表
// @Tags 公告
// @Produce json
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页条数，默认20"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/announcements [get]
func (h *AnnouncementHandler) GetAnnouncements(c *gin.Context) {
	actor, ok := Actor(c)
	if !ok {
		return
	}
	page, pageSize := Pagination(c)

	result, err := h.announcementService.ListPublished(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}
	OK(c, constants.SuccessGet, result)
}

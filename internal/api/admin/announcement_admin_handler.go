package admin

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"noticeboard/internal/api/handler"
	"noticeboard/internal/constants"
	"noticeboard/internal/model"
	"noticeboard/internal/service"
	"noticeboard/pkg/logger"
)

// AnnouncementAdminHandler 公告管理处理器
type AnnouncementAdminHandler struct {
	announcementService *service.AnnouncementService
	logger              *logger.Logger
}

// NewAnnouncementAdminHandler 创建公告管理处理器实例
func NewAnnouncementAdminHandler(announcementService *service.AnnouncementService, logger *logger.Logger) *AnnouncementAdminHandler {
	return &AnnouncementAdminHandler{
		announcementService: announcementService,
		logger:              logger,
	}
}

// CreateAnnouncement 创建公告，status=published 时立即扇出通知
// @Summary 创建公告
// @Tags 公告管理
// @Accept json
// @Produce json
// @Param announcement body service.CreateAnnouncementInput true "公告信息"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/admin/announcements [post]
func (h *AnnouncementAdminHandler) CreateAnnouncement(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req service.CreateAnnouncementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, constants.ErrInvalidRequest+"："+err.Error())
		return
	}

	result, err := h.announcementService.Create(c.Request.Context(), actor, req)
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, handler.SuccessMessage(constants.SuccessCreate, result.Diagnostics), result)
}

// GetAdminAnnouncements 按条件分页查询公告
// @Summary 获取公告列表（管理员）
// @Tags 公告管理
// @Produce json
// @Param status query string false "状态"
// @Param priority query string false "优先级"
// @Param target_audience query string false "受众"
// @Param tag query string false "标签"
// @Param q query string false "标题或内容关键字"
// @Param created_by query string false "创建人"
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页条数，默认20"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/admin/announcements [get]
func (h *AnnouncementAdminHandler) GetAdminAnnouncements(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	filter := model.AnnouncementFilter{
		Status:         model.AnnouncementStatus(c.Query("status")),
		Priority:       model.Priority(c.Query("priority")),
		TargetAudience: model.Audience(c.Query("target_audience")),
		Tag:            c.Query("tag"),
		Search:         c.Query("q"),
		CreatedBy:      c.Query("created_by"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		handler.BadRequest(c, "无效的状态: "+string(filter.Status))
		return
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		handler.BadRequest(c, "无效的优先级: "+string(filter.Priority))
		return
	}
	page, pageSize := handler.Pagination(c)

	result, err := h.announcementService.List(c.Request.Context(), actor, filter, page, pageSize)
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, constants.SuccessGet, result)
}

// GetStats 各状态公告数量
func (h *AnnouncementAdminHandler) GetStats(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	stats, err := h.announcementService.Stats(c.Request.Context(), actor)
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, constants.SuccessGet, stats)
}

// GetAdminAnnouncementByID 获取公告详情
func (h *AnnouncementAdminHandler) GetAdminAnnouncementByID(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	announcement, err := h.announcementService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, constants.SuccessGet, announcement)
}

// UpdateAnnouncement 编辑公告内容与受众，不改变状态
func (h *AnnouncementAdminHandler) UpdateAnnouncement(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req service.UpdateAnnouncementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, constants.ErrInvalidRequest+"："+err.Error())
		return
	}

	announcement, diags, err := h.announcementService.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, handler.SuccessMessage(constants.SuccessUpdate, diags), gin.H{
		"announcement": announcement,
		"diagnostics":  diags,
	})
}

// PublishAnnouncement 发布草稿或定时公告并扇出通知
func (h *AnnouncementAdminHandler) PublishAnnouncement(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	result, err := h.announcementService.Publish(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, handler.SuccessMessage(constants.SuccessPublish, result.Diagnostics), result)
}

// RepublishAnnouncement 重新发布已归档公告，生成新一批通知
func (h *AnnouncementAdminHandler) RepublishAnnouncement(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	result, err := h.announcementService.Republish(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, handler.SuccessMessage(constants.SuccessPublish, result.Diagnostics), result)
}

// ScheduleRequest 定时发布请求
type ScheduleRequest struct {
	ScheduledFor string `json:"scheduled_for" binding:"required"`
}

// ScheduleAnnouncement 设置定时发布时间
func (h *AnnouncementAdminHandler) ScheduleAnnouncement(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, constants.ErrInvalidRequest+"："+err.Error())
		return
	}
	when, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		handler.BadRequest(c, constants.ErrInvalidTime)
		return
	}

	result, err := h.announcementService.Schedule(c.Request.Context(), actor, c.Param("id"), when)
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, constants.SuccessSchedule, result)
}

// ArchiveAnnouncement 归档公告，不产生通知
func (h *AnnouncementAdminHandler) ArchiveAnnouncement(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	result, err := h.announcementService.Archive(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, constants.SuccessArchive, result)
}

// DeleteAnnouncement 删除公告，已生成的通知保留
func (h *AnnouncementAdminHandler) DeleteAnnouncement(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	result, err := h.announcementService.Delete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, handler.SuccessMessage(constants.SuccessDelete, result.Diagnostics), result)
}

// GetAuditTrail 公告的审计记录
func (h *AnnouncementAdminHandler) GetAuditTrail(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultAuditLimit)))
	if err != nil {
		handler.BadRequest(c, constants.ErrInvalidParams)
		return
	}
	records, err := h.announcementService.AuditTrail(c.Request.Context(), actor, c.Param("id"), limit)
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, constants.SuccessGet, records)
}

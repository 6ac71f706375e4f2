package handler

import (
	"github.com/gin-gonic/gin"

	"noticeboard/internal/constants"
	"noticeboard/internal/service"
	"noticeboard/pkg/logger"
)

// NotificationHandler 成员通知处理器
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler 创建通知处理器实例
func NewNotificationHandler(notificationService *service.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List 获取当前成员的通知，unread=true 时只返回未读
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := Actor(c)
	if !ok {
		return
	}
	page, pageSize := Pagination(c)
	unreadOnly := c.Query("unread") == "true"

	result, err := h.notificationService.List(c.Request.Context(), actor, unreadOnly, page, pageSize)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}
	OK(c, constants.SuccessGet, result)
}

// UnreadCount 未读通知数量
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := Actor(c)
	if !ok {
		return
	}
	count, err := h.notificationService.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}
	OK(c, constants.SuccessGet, gin.H{"unread": count})
}

// MarkRead 标记单条通知为已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := Actor(c)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), actor, c.Param("id")); err != nil {
		Fail(c, h.logger, err)
		return
	}
	OK(c, constants.SuccessMarkRead, gin.H{"ok": true})
}

// MarkAllRead 标记全部通知为已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := Actor(c)
	if !ok {
		return
	}
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}
	OK(c, constants.SuccessMarkRead, gin.H{"updated": updated})
}

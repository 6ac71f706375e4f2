package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"noticeboard/internal/constants"
	"noticeboard/internal/middleware"
	"noticeboard/internal/model"
	"noticeboard/internal/service"
	"noticeboard/pkg/logger"
)

// OK 成功响应
func OK(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": msg, "data": data})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"code": 400, "msg": msg})
}

// SuccessMessage 根据诊断信息选择成功消息
func SuccessMessage(msg string, diags model.Diagnostics) string {
	switch {
	case diags.HasCode(service.CodePartialDelivery):
		return constants.SuccessPartial
	case diags.HasCode(service.CodeAuditFailure):
		return constants.SuccessAuditWarn
	}
	return msg
}

// Fail 将业务错误转换为统一响应
func Fail(c *gin.Context, log *logger.Logger, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		log.Error("请求处理失败", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	switch se.Code {
	case service.CodeUnauthorized:
		code := 401
		if _, ok := middleware.ActorFrom(c); ok {
			code = 403
		}
		c.JSON(http.StatusOK, gin.H{"code": code, "msg": se.Message})
	case service.CodeValidation:
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": se.Message})
	case service.CodeNotFound:
		c.JSON(http.StatusOK, gin.H{"code": 404, "msg": se.Message})
	case service.CodeRateLimited:
		seconds := int64(math.Ceil(se.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.FormatInt(seconds, 10))
		c.JSON(http.StatusOK, gin.H{
			"code": 429,
			"msg":  constants.ErrOperationTooFrequent,
			"data": gin.H{"action": se.ActionKind, "retry_after_seconds": seconds},
		})
	default:
		log.Error("请求处理失败", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
	}
}

// Pagination 解析分页参数，非法值回退为默认值
func Pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(service.DefaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = service.DefaultPageSize
	}
	return page, pageSize
}

// Actor 当前请求身份，未认证时写入 401 响应
func Actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"code": 401, "msg": constants.ErrUnauthorized})
	}
	return actor, ok
}

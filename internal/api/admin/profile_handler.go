package admin

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"noticeboard/internal/api/handler"
	"noticeboard/internal/constants"
	"noticeboard/internal/repository"
	"noticeboard/pkg/logger"
)

const maxSearchLimit = 50

// ProfileAdminHandler 身份查询处理器，用于选择指定用户受众
type ProfileAdminHandler struct {
	profiles repository.ProfileRepository
	logger   *logger.Logger
}

// NewProfileAdminHandler 创建身份查询处理器实例
func NewProfileAdminHandler(profiles repository.ProfileRepository, logger *logger.Logger) *ProfileAdminHandler {
	return &ProfileAdminHandler{profiles: profiles, logger: logger}
}

// SearchProfiles 按 ID、姓名或邮箱搜索身份
func (h *ProfileAdminHandler) SearchProfiles(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("q"))
	if keyword == "" {
		handler.BadRequest(c, "搜索关键字不能为空")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > maxSearchLimit {
		limit = 20
	}

	profiles, err := h.profiles.Search(c.Request.Context(), keyword, limit)
	if err != nil {
		handler.Fail(c, h.logger, err)
		return
	}
	handler.OK(c, constants.SuccessGet, profiles)
}

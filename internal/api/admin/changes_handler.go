package admin

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"noticeboard/pkg/changefeed"
	"noticeboard/pkg/logger"
)

// ChangeFeedHandler 通过 SSE 推送变更事件
type ChangeFeedHandler struct {
	hub       *changefeed.Hub
	logger    *logger.Logger
	heartbeat time.Duration
}

// NewChangeFeedHandler 创建变更事件处理器实例
func NewChangeFeedHandler(hub *changefeed.Hub, logger *logger.Logger) *ChangeFeedHandler {
	return &ChangeFeedHandler{hub: hub, logger: logger, heartbeat: 25 * time.Second}
}

// Stream 订阅变更事件，tables 为逗号分隔的表名，缺省订阅全部
func (h *ChangeFeedHandler) Stream(c *gin.Context) {
	var tables []string
	for _, t := range strings.Split(c.Query("tables"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	events, unsubscribe := h.hub.Subscribe(64, tables...)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	h.logger.Debug("变更订阅建立", "tables", tables, "subscribers", h.hub.Subscribers())
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("变更订阅断开", "tables", tables)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(strings.ToLower(string(ev.Kind)), ev)
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}

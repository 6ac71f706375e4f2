package repository

import (
	"database/sql"
	"errors"
	"strings"

	"noticeboard/pkg/changefeed"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// ErrConflict 记录状态已被其他请求修改
var ErrConflict = errors.New("记录状态已变更")

// 变更事件对应的表名
const (
	TableAnnouncements = "announcements"
	TableNotifications = "notifications"
	TableAuditLogs     = "audit_logs"
)

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func emit(n changefeed.Notifier, events ...changefeed.ChangeEvent) {
	if n == nil || len(events) == 0 {
		return
	}
	n.Notify(events...)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern 生成包含匹配的 LIKE 模式，配合 ESCAPE '!' 使用（MySQL与SQLite通用）
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

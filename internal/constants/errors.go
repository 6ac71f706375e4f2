package constants

// 通用错误消息
const (
	// 认证相关错误
	ErrUnauthorized           = "未授权，请先登录"
	ErrInvalidToken           = "无效的Token"
	ErrInsufficientPermission = "权限不足"
	ErrAccountDisabled        = "账号已被停用"

	// 参数相关错误
	ErrInvalidParams  = "参数错误"
	ErrInvalidRequest = "无效请求格式"
	ErrInvalidTime    = "时间格式错误，应为 RFC3339"

	// 公告相关错误
	ErrAnnouncementNotFound = "公告不存在"
	ErrNotificationNotFound = "通知不存在"

	// 系统错误
	ErrInternalServer       = "服务器内部错误"
	ErrOperationTooFrequent = "请求过于频繁，请稍后重试"
)

// 成功消息
const (
	SuccessCreate    = "创建成功"
	SuccessUpdate    = "更新成功"
	SuccessDelete    = "删除成功"
	SuccessGet       = "获取成功"
	SuccessPublish   = "发布成功"
	SuccessSchedule  = "已设置定时发布"
	SuccessArchive   = "归档成功"
	SuccessMarkRead  = "已标记为已读"
	SuccessPartial   = "发布成功，但部分通知未送达"
	SuccessAuditWarn = "操作成功，但审计记录写入失败"
)

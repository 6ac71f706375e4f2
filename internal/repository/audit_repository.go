package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"noticeboard/internal/model"
	"noticeboard/pkg/changefeed"
)

// AuditRepository 审计日志存储接口，只允许追加
type AuditRepository interface {
	Append(ctx context.Context, rec *model.AuditRecord) error
	ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]model.AuditRecord, error)
}

type auditRepository struct {
	db       *sqlx.DB
	notifier changefeed.Notifier
}

// NewAuditRepository 创建审计日志存储实例
func NewAuditRepository(db *sqlx.DB, notifier changefeed.Notifier) AuditRepository {
	return &auditRepository{db: db, notifier: notifier}
}

// Append 追加一条审计记录
func (r *auditRepository) Append(ctx context.Context, rec *model.AuditRecord) error {
	query := `INSERT INTO audit_logs (id, actor_id, action_kind, resource_type, resource_id, detail, created_at)
		VALUES (:id, :actor_id, :action_kind, :resource_type, :resource_id, :detail, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("写入审计日志失败: %w", err)
	}
	emit(r.notifier, changefeed.ChangeEvent{Table: TableAuditLogs, Kind: changefeed.KindInsert, After: *rec})
	return nil
}

// ListByResource 按资源倒序列出审计记录
func (r *auditRepository) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]model.AuditRecord, error) {
	items := []model.AuditRecord{}
	query := `SELECT id, actor_id, action_kind, resource_type, resource_id, detail, created_at
		FROM audit_logs WHERE resource_type = ? AND resource_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &items, query, resourceType, resourceID, limit); err != nil {
		return nil, fmt.Errorf("查询审计日志失败: %w", err)
	}
	return items, nil
}

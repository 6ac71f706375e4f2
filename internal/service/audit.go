package service

//go:generate mockgen -source=audit.go -destination=mocks/mock_audit.go -package=mocks AuditStore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"noticeboard/internal/metrics"
	"noticeboard/internal/model"
	"noticeboard/pkg/logger"
)

// AuditStore 审计日志存储
type AuditStore interface {
	Append(ctx context.Context, rec *model.AuditRecord) error
	ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]model.AuditRecord, error)
}

// AuditRecorder 追加审计记录。写入失败只记录日志与返回错误，由调用方转为诊断
type AuditRecorder struct {
	store   AuditStore
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAuditRecorder 创建审计记录器
func NewAuditRecorder(store AuditStore, logger *logger.Logger, m *metrics.Metrics) *AuditRecorder {
	return &AuditRecorder{store: store, logger: logger, metrics: m, now: time.Now}
}

// Record 记录一次公告操作
func (r *AuditRecorder) Record(ctx context.Context, actor model.Actor, action model.AuditAction, resourceID string, detail model.AuditDetail) error {
	rec := &model.AuditRecord{
		ID:           uuid.NewString(),
		ActorID:      actor.ID,
		ActionKind:   action,
		ResourceType: model.ResourceAnnouncement,
		ResourceID:   resourceID,
		Detail:       detail,
		CreatedAt:    r.now().UTC(),
	}
	if err := r.store.Append(ctx, rec); err != nil {
		r.metrics.IncrementAuditFailures()
		r.logger.Error("写入审计日志失败", "actor_id", actor.ID, "action", action, "resource_id", resourceID, "error", err)
		return err
	}
	return nil
}

// List 列出资源的审计记录
func (r *AuditRecorder) List(ctx context.Context, resourceID string, limit int) ([]model.AuditRecord, error) {
	return r.store.ListByResource(ctx, model.ResourceAnnouncement, resourceID, limit)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/rand"
	"k8s.io/apimachinery/pkg/util/sets"

	"noticeboard/internal/metrics"
	"noticeboard/internal/model"
	"noticeboard/pkg/logger"
)

// NotificationWriter 通知批量写入
type NotificationWriter interface {
	BulkCreate(ctx context.Context, items []model.Notification) (int64, error)
}

// DeliveryReport 一次扇出的投递结果
type DeliveryReport struct {
	BatchID   string `json:"batch_id"`
	Requested int64  `json:"requested"`
	Created   int64  `json:"created"`
}

// Partial 是否少于应投递数量
func (r DeliveryReport) Partial() bool {
	return r.Created < r.Requested
}

// FanoutDispatcher 为接收者集合批量生成通知。
// 写入失败或少写只体现在报告与诊断中，不回滚公告状态。
type FanoutDispatcher struct {
	writer  NotificationWriter
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	batchID func() string
}

// NewFanoutDispatcher 创建扇出调度器，m 可为 nil
func NewFanoutDispatcher(writer NotificationWriter, logger *logger.Logger, m *metrics.Metrics) *FanoutDispatcher {
	return &FanoutDispatcher{
		writer:  writer,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		batchID: func() string { return rand.String(16) },
	}
}

// Dispatch 生成并写入通知
func (d *FanoutDispatcher) Dispatch(ctx context.Context, a *model.Announcement, recipients sets.Set[string]) (DeliveryReport, model.Diagnostics) {
	report := DeliveryReport{BatchID: d.batchID(), Requested: int64(recipients.Len())}
	var diags model.Diagnostics

	if report.Requested == 0 {
		diags.Add(model.StageFanout, model.OutcomeSkipped, "no recipients resolved, nothing to deliver")
		return report, diags
	}

	items := d.build(a, report.BatchID, sets.List(recipients))

	start := time.Now()
	created, err := d.writer.BulkCreate(ctx, items)
	report.Created = created
	d.metrics.ObserveFanout(report.Requested, report.Created, time.Since(start).Seconds())

	switch {
	case err != nil:
		outcome := model.OutcomePartial
		if created == 0 {
			outcome = model.OutcomeFailed
		}
		diags.AddCode(model.StageFanout, outcome, CodePartialDelivery,
			fmt.Sprintf("created %d of %d notifications: %v", created, report.Requested, err))
		d.logger.Error("通知扇出失败", "announcement_id", a.ID, "batch_id", report.BatchID,
			"requested", report.Requested, "created", created, "error", err)
	case report.Partial():
		diags.AddCode(model.StageFanout, model.OutcomePartial, CodePartialDelivery,
			fmt.Sprintf("created %d of %d notifications", created, report.Requested))
		d.logger.Warn("通知扇出不完整", "announcement_id", a.ID, "batch_id", report.BatchID,
			"requested", report.Requested, "created", created)
	default:
		diags.Add(model.StageFanout, model.OutcomeOK, fmt.Sprintf("created %d notifications", created))
		d.logger.Info("通知扇出完成", "announcement_id", a.ID, "batch_id", report.BatchID, "created", created)
	}
	return report, diags
}

func (d *FanoutDispatcher) build(a *model.Announcement, batchID string, recipients []string) []model.Notification {
	now := d.now().UTC()
	actionURL := a.ActionURL
	if actionURL == "" {
		actionURL = "/announcements/" + a.ID
	}
	payload := model.NotificationPayload{AnnouncementID: a.ID, BatchID: batchID, Priority: a.Priority}

	items := make([]model.Notification, 0, len(recipients))
	for _, rid := range recipients {
		annID := a.ID
		items = append(items, model.Notification{
			ID:             uuid.NewString(),
			RecipientID:    rid,
			AnnouncementID: &annID,
			BatchID:        batchID,
			Type:           model.NotificationTypeAnnouncement,
			Category:       model.NotificationCategorySystem,
			Title:          a.Title,
			Message:        a.Content,
			Payload:        payload,
			ActionURL:      actionURL,
			Priority:       a.Priority,
			CreatedAt:      now,
		})
	}
	return items
}

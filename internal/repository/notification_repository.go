package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"noticeboard/internal/model"
	"noticeboard/pkg/changefeed"
)

const notificationColumns = `id, recipient_id, announcement_id, batch_id, type, category, title,
	message, payload, action_url, priority, read_at, created_at`

// DefaultBulkChunkSize 单条 INSERT 语句最多携带的通知行数
const DefaultBulkChunkSize = 1000

// NotificationRepository 通知存储接口
type NotificationRepository interface {
	BulkCreate(ctx context.Context, items []model.Notification) (int64, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	CountByAnnouncement(ctx context.Context, announcementID string) (int64, error)
}

// notificationRepository 通知存储实现
type notificationRepository struct {
	db        *sqlx.DB
	notifier  changefeed.Notifier
	chunkSize int
}

// NewNotificationRepository 创建通知存储实例，chunkSize <= 0 时使用默认值
func NewNotificationRepository(db *sqlx.DB, notifier changefeed.Notifier, chunkSize int) NotificationRepository {
	if chunkSize <= 0 {
		chunkSize = DefaultBulkChunkSize
	}
	return &notificationRepository{db: db, notifier: notifier, chunkSize: chunkSize}
}

// BulkCreate 多行插入通知，返回实际写入行数。
// 某个分块失败时停止后续分块，返回已写入行数和错误。
func (r *notificationRepository) BulkCreate(ctx context.Context, items []model.Notification) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES (:id, :recipient_id, :announcement_id, :batch_id, :type, :category, :title,
			:message, :payload, :action_url, :priority, :read_at, :created_at)`

	var created int64
	for start := 0; start < len(items); start += r.chunkSize {
		end := min(start+r.chunkSize, len(items))
		chunk := items[start:end]

		res, err := r.db.NamedExecContext(ctx, query, chunk)
		if err != nil {
			return created, fmt.Errorf("批量插入通知失败(%d-%d): %w", start, end, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			// 驱动不支持时按提交行数计
			n = int64(len(chunk))
		}
		created += n

		events := make([]changefeed.ChangeEvent, 0, len(chunk))
		for i := range chunk {
			events = append(events, changefeed.ChangeEvent{Table: TableNotifications, Kind: changefeed.KindInsert, After: chunk[i]})
		}
		emit(r.notifier, events...)
	}
	return created, nil
}

// ListByRecipient 分页查询某成员的通知
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]model.Notification, int64, error) {
	where := ` WHERE recipient_id = ?`
	if unreadOnly {
		where += ` AND read_at IS NULL`
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+where, recipientID); err != nil {
		return nil, 0, fmt.Errorf("统计通知数量失败: %w", err)
	}

	items := []model.Notification{}
	if total == 0 {
		return items, 0, nil
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &items, query, recipientID, pageSize, (page-1)*pageSize); err != nil {
		return nil, 0, fmt.Errorf("查询通知列表失败: %w", err)
	}
	return items, total, nil
}

// CountUnread 未读通知数量
func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND read_at IS NULL`, recipientID)
	return n, err
}

// MarkRead 标记单条通知为已读，只能操作本人的通知
func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND recipient_id = ?`,
		at.UTC(), id, recipientID)
	if err != nil {
		return fmt.Errorf("标记通知已读失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	emit(r.notifier, changefeed.ChangeEvent{
		Table: TableNotifications,
		Kind:  changefeed.KindUpdate,
		After: map[string]any{"id": id, "recipient_id": recipientID, "read_at": at.UTC()},
	})
	return nil
}

// MarkAllRead 将某成员的全部未读通知标记为已读
func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = ? WHERE recipient_id = ? AND read_at IS NULL`,
		at.UTC(), recipientID)
	if err != nil {
		return 0, fmt.Errorf("标记全部已读失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		emit(r.notifier, changefeed.ChangeEvent{
			Table: TableNotifications,
			Kind:  changefeed.KindUpdate,
			After: map[string]any{"recipient_id": recipientID, "read_at": at.UTC(), "count": n},
		})
	}
	return n, nil
}

// CountByAnnouncement 某公告已发出的通知数量
func (r *notificationRepository) CountByAnnouncement(ctx context.Context, announcementID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE announcement_id = ?`, announcementID)
	return n, err
}

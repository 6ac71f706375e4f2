package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"noticeboard/internal/model"
	"noticeboard/pkg/changefeed"
)

const announcementColumns = `id, title, content, status, priority, target_audience, target_user_id,
	scheduled_for, created_by, created_at, updated_at, published_at, archived_at,
	views, engagement_rate, tags, action_url`

// AnnouncementRepository 公告存储接口
type AnnouncementRepository interface {
	Create(ctx context.Context, a *model.Announcement) error
	GetByID(ctx context.Context, id string) (*model.Announcement, error)
	Update(ctx context.Context, a *model.Announcement) error
	Transition(ctx context.Context, a *model.Announcement, from ...model.AnnouncementStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.AnnouncementFilter, page, pageSize int) ([]model.Announcement, int64, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Announcement, error)
	CountByStatus(ctx context.Context) (model.AnnouncementStats, error)
}

// announcementRepository 公告存储实现
type announcementRepository struct {
	db       *sqlx.DB
	notifier changefeed.Notifier
}

// NewAnnouncementRepository 创建公告存储实例，notifier 可为 nil
func NewAnnouncementRepository(db *sqlx.DB, notifier changefeed.Notifier) AnnouncementRepository {
	return &announcementRepository{db: db, notifier: notifier}
}

// Create 插入公告
func (r *announcementRepository) Create(ctx context.Context, a *model.Announcement) error {
	query := `INSERT INTO announcements (` + announcementColumns + `)
		VALUES (:id, :title, :content, :status, :priority, :target_audience, :target_user_id,
			:scheduled_for, :created_by, :created_at, :updated_at, :published_at, :archived_at,
			:views, :engagement_rate, :tags, :action_url)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("插入公告失败: %w", err)
	}
	emit(r.notifier, changefeed.ChangeEvent{Table: TableAnnouncements, Kind: changefeed.KindInsert, After: a.Clone()})
	return nil
}

// GetByID 根据ID获取公告
func (r *announcementRepository) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	var a model.Announcement
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = ?`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

const updateAnnouncementQuery = `UPDATE announcements SET
		title = :title, content = :content, status = :status, priority = :priority,
		target_audience = :target_audience, target_user_id = :target_user_id,
		scheduled_for = :scheduled_for, updated_at = :updated_at,
		published_at = :published_at, archived_at = :archived_at,
		tags = :tags, action_url = :action_url
	WHERE id = :id`

// Update 按ID整行更新公告（不含创建信息与统计字段）
func (r *announcementRepository) Update(ctx context.Context, a *model.Announcement) error {
	res, err := r.db.NamedExecContext(ctx, updateAnnouncementQuery, a)
	if err != nil {
		return fmt.Errorf("更新公告失败: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	emit(r.notifier, changefeed.ChangeEvent{Table: TableAnnouncements, Kind: changefeed.KindUpdate, After: a.Clone()})
	return nil
}

// Transition 仅当库中状态属于 from 时整行更新公告。
// 状态已被其他请求修改时返回 ErrConflict，记录不存在返回 ErrNotFound。
func (r *announcementRepository) Transition(ctx context.Context, a *model.Announcement, from ...model.AnnouncementStatus) error {
	if len(from) == 0 {
		return r.Update(ctx, a)
	}
	query, args, err := sqlx.Named(updateAnnouncementQuery, a)
	if err != nil {
		return fmt.Errorf("构造公告更新语句失败: %w", err)
	}
	query += ` AND status IN (?` + strings.Repeat(", ?", len(from)-1) + `)`
	for _, st := range from {
		args = append(args, st)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("更新公告状态失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM announcements WHERE id = ?`, a.ID); err != nil {
			return fmt.Errorf("查询公告失败: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	emit(r.notifier, changefeed.ChangeEvent{Table: TableAnnouncements, Kind: changefeed.KindUpdate, After: a.Clone()})
	return nil
}

// Delete 删除公告，已发出的通知不受影响
func (r *announcementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("删除公告失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	emit(r.notifier, changefeed.ChangeEvent{Table: TableAnnouncements, Kind: changefeed.KindDelete, Before: map[string]string{"id": id}})
	return nil
}

// List 按条件分页查询公告，返回当前页与总数
func (r *announcementRepository) List(ctx context.Context, filter model.AnnouncementFilter, page, pageSize int) ([]model.Announcement, int64, error) {
	where, args := buildAnnouncementWhere(filter)

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM announcements`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("统计公告数量失败: %w", err)
	}

	items := []model.Announcement{}
	if total == 0 {
		return items, 0, nil
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + announcementColumns + ` FROM announcements` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &items, query, append(args, pageSize, offset)...); err != nil {
		return nil, 0, fmt.Errorf("查询公告列表失败: %w", err)
	}
	return items, total, nil
}

func buildAnnouncementWhere(f model.AnnouncementFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.TargetAudience != "" {
		conds = append(conds, "target_audience = ?")
		args = append(args, f.TargetAudience)
	}
	if f.CreatedBy != "" {
		conds = append(conds, "created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		conds = append(conds, "tags LIKE ? ESCAPE '!'")
		args = append(args, "%,"+likeEscaper.Replace(tag)+",%")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "(title LIKE ? ESCAPE '!' OR content LIKE ? ESCAPE '!')")
		p := containsPattern(s)
		args = append(args, p, p)
	}
	if f.Viewer != nil {
		// 全员、所属角色、或指定给本人
		visible := []string{"target_audience = ?"}
		args = append(args, model.AudienceAll)
		if aud, ok := model.AudienceForRole(f.Viewer.Role); ok {
			visible = append(visible, "target_audience = ?")
			args = append(args, aud)
		}
		visible = append(visible, "(target_audience = ? AND target_user_id = ?)")
		args = append(args, model.AudienceSpecificUser, f.Viewer.ID)
		conds = append(conds, "("+strings.Join(visible, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListDue 查询已到期的定时公告
func (r *announcementRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Announcement, error) {
	items := []model.Announcement{}
	query := `SELECT ` + announcementColumns + ` FROM announcements
		WHERE status = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?
		ORDER BY scheduled_for ASC LIMIT ?`
	if err := r.db.SelectContext(ctx, &items, query, model.StatusScheduled, now.UTC(), limit); err != nil {
		return nil, fmt.Errorf("查询到期公告失败: %w", err)
	}
	return items, nil
}

// CountByStatus 按状态统计公告数量
func (r *announcementRepository) CountByStatus(ctx context.Context) (model.AnnouncementStats, error) {
	var rows []struct {
		Status model.AnnouncementStatus `db:"status"`
		Count  int64                    `db:"cnt"`
	}
	var stats model.AnnouncementStats
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS cnt FROM announcements GROUP BY status`); err != nil {
		return stats, fmt.Errorf("统计公告状态失败: %w", err)
	}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case model.StatusDraft:
			stats.Draft = row.Count
		case model.StatusScheduled:
			stats.Scheduled = row.Count
		case model.StatusPublished:
			stats.Published = row.Count
		case model.StatusArchived:
			stats.Archived = row.Count
		}
	}
	return stats, nil
}

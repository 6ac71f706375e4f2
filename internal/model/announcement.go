package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// AnnouncementStatus 公告状态
type AnnouncementStatus string

const (
	StatusDraft     AnnouncementStatus = "draft"
	StatusScheduled AnnouncementStatus = "scheduled"
	StatusPublished AnnouncementStatus = "published"
	StatusArchived  AnnouncementStatus = "archived"
)

// Valid 是否为已知状态
func (s AnnouncementStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Priority 公告优先级
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid 是否为已知优先级
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Announcement 公告模型
type Announcement struct {
	ID             string             `db:"id" json:"id"`
	Title          string             `db:"title" json:"title"`
	Content        string             `db:"content" json:"content"`
	Status         AnnouncementStatus `db:"status" json:"status"`
	Priority       Priority           `db:"priority" json:"priority"`
	TargetAudience Audience           `db:"target_audience" json:"target_audience"`
	TargetUserID   *string            `db:"target_user_id" json:"target_user_id,omitempty"`
	ScheduledFor   *time.Time         `db:"scheduled_for" json:"scheduled_for,omitempty"`
	CreatedBy      string             `db:"created_by" json:"created_by"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
	PublishedAt    *time.Time         `db:"published_at" json:"published_at,omitempty"`
	ArchivedAt     *time.Time         `db:"archived_at" json:"archived_at,omitempty"`
	Views          int64              `db:"views" json:"views"`
	EngagementRate float64            `db:"engagement_rate" json:"engagement_rate"`
	Tags           TagList            `db:"tags" json:"tags"`
	ActionURL      string             `db:"action_url" json:"action_url,omitempty"`
}

// Clone 深拷贝，用于记录变更前的状态
func (a *Announcement) Clone() *Announcement {
	if a == nil {
		return nil
	}
	c := *a
	c.TargetUserID = clonePtr(a.TargetUserID)
	c.ScheduledFor = clonePtr(a.ScheduledFor)
	c.PublishedAt = clonePtr(a.PublishedAt)
	c.ArchivedAt = clonePtr(a.ArchivedAt)
	c.Tags = append(TagList(nil), a.Tags...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// AnnouncementFilter 公告列表过滤条件
type AnnouncementFilter struct {
	Status         AnnouncementStatus
	Priority       Priority
	TargetAudience Audience
	Tag            string
	Search         string
	CreatedBy      string
	// 非空时只返回该成员可见的公告
	Viewer *Actor
}

// PageInfo 分页信息
type PageInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPageInfo 根据总数计算分页信息
func NewPageInfo(page, pageSize int, total int64) PageInfo {
	totalPages := 0
	if total > 0 && pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PageInfo{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// PaginatedAnnouncements 分页公告结果
type PaginatedAnnouncements struct {
	Items      []Announcement `json:"items"`
	TotalCount int64          `json:"total_count"`
	PageInfo   PageInfo       `json:"page_info"`
}

// TagList 标签列表，存储为 ",a,b," 以便 LIKE '%,a,%' 精确匹配
type TagList []string

// Value 实现 driver.Valuer
func (t TagList) Value() (driver.Value, error) {
	cleaned := NormalizeTags(t)
	if len(cleaned) == 0 {
		return "", nil
	}
	return "," + strings.Join(cleaned, ",") + ",", nil
}

// Scan 实现 sql.Scanner
func (t *TagList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*t = TagList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("TagList: unsupported type %T", src)
	}
	*t = NormalizeTags(strings.Split(raw, ","))
	return nil
}

// NormalizeTags 去除空白、逗号与重复项，保持原有顺序
func NormalizeTags(tags []string) TagList {
	out := make(TagList, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.ReplaceAll(tag, ",", " "))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// AnnouncementStats 各状态公告数量
type AnnouncementStats struct {
	Total     int64 `json:"total"`
	Draft     int64 `json:"draft"`
	Scheduled int64 `json:"scheduled"`
	Published int64 `json:"published"`
	Archived  int64 `json:"archived"`
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 通知类型与分类
const (
	NotificationTypeAnnouncement = "announcement"
	NotificationCategorySystem   = "system"
)

// NotificationPayload 通知的结构化负载，引用来源公告
type NotificationPayload struct {
	AnnouncementID string   `json:"announcement_id"`
	BatchID        string   `json:"batch_id"`
	Priority       Priority `json:"priority"`
}

// Value 实现 driver.Valuer
func (p NotificationPayload) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (p *NotificationPayload) Scan(src any) error {
	return scanJSON(src, p)
}

// Notification 通知模型
type Notification struct {
	ID             string              `db:"id" json:"id"`
	RecipientID    string              `db:"recipient_id" json:"recipient_id"`
	AnnouncementID *string             `db:"announcement_id" json:"announcement_id,omitempty"`
	BatchID        string              `db:"batch_id" json:"batch_id"`
	Type           string              `db:"type" json:"type"`
	Category       string              `db:"category" json:"category"`
	Title          string              `db:"title" json:"title"`
	Message        string              `db:"message" json:"message"`
	Payload        NotificationPayload `db:"payload" json:"payload"`
	ActionURL      string              `db:"action_url" json:"action_url,omitempty"`
	Priority       Priority            `db:"priority" json:"priority"`
	ReadAt         *time.Time          `db:"read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
}

// PaginatedNotifications 分页通知结果
type PaginatedNotifications struct {
	Items      []Notification `json:"items"`
	TotalCount int64          `json:"total_count"`
	PageInfo   PageInfo       `json:"page_info"`
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}

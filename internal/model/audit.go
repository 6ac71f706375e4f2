package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// AuditAction 审计操作类型
type AuditAction string

const (
	AuditCreate    AuditAction = "create"
	AuditUpdate    AuditAction = "update"
	AuditPublish   AuditAction = "publish"
	AuditRepublish AuditAction = "republish"
	AuditSchedule  AuditAction = "schedule"
	AuditArchive   AuditAction = "archive"
	AuditDelete    AuditAction = "delete"
)

// 审计资源类型
const ResourceAnnouncement = "announcement"

// AuditDetail 审计详情
type AuditDetail map[string]any

// Value 实现 driver.Valuer
func (d AuditDetail) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (d *AuditDetail) Scan(src any) error {
	return scanJSON(src, d)
}

// AuditRecord 审计记录，写入后不可修改
type AuditRecord struct {
	ID           string      `db:"id" json:"id"`
	ActorID      string      `db:"actor_id" json:"actor_id"`
	ActionKind   AuditAction `db:"action_kind" json:"action_kind"`
	ResourceType string      `db:"resource_type" json:"resource_type"`
	ResourceID   string      `db:"resource_id" json:"resource_id"`
	Detail       AuditDetail `db:"detail" json:"detail"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

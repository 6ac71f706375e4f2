package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id           VARCHAR(36)  NOT NULL PRIMARY KEY,
		role         VARCHAR(32)  NOT NULL,
		status       VARCHAR(16)  NOT NULL DEFAULT 'active',
		display_name VARCHAR(128) NOT NULL DEFAULT '',
		email        VARCHAR(255) NOT NULL DEFAULT '',
		created_at   DATETIME(3)  NOT NULL,
		INDEX idx_profiles_role (role)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id              VARCHAR(36)   NOT NULL PRIMARY KEY,
		title           VARCHAR(255)  NOT NULL,
		content         TEXT          NOT NULL,
		status          VARCHAR(16)   NOT NULL,
		priority        VARCHAR(16)   NOT NULL,
		target_audience VARCHAR(64)   NOT NULL,
		target_user_id  VARCHAR(36)   NULL,
		scheduled_for   DATETIME(3)   NULL,
		created_by      VARCHAR(36)   NOT NULL,
		created_at      DATETIME(3)   NOT NULL,
		updated_at      DATETIME(3)   NOT NULL,
		published_at    DATETIME(3)   NULL,
		archived_at     DATETIME(3)   NULL,
		views           BIGINT        NOT NULL DEFAULT 0,
		engagement_rate DOUBLE        NOT NULL DEFAULT 0,
		tags            VARCHAR(1024) NOT NULL DEFAULT '',
		action_url      VARCHAR(512)  NOT NULL DEFAULT '',
		INDEX idx_announcements_status (status, scheduled_for),
		INDEX idx_announcements_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id              VARCHAR(36)  NOT NULL PRIMARY KEY,
		recipient_id    VARCHAR(36)  NOT NULL,
		announcement_id VARCHAR(36)  NULL,
		batch_id        VARCHAR(32)  NOT NULL DEFAULT '',
		type            VARCHAR(32)  NOT NULL,
		category        VARCHAR(32)  NOT NULL,
		title           VARCHAR(255) NOT NULL,
		message         TEXT         NOT NULL,
		payload         TEXT         NOT NULL,
		action_url      VARCHAR(512) NOT NULL DEFAULT '',
		priority        VARCHAR(16)  NOT NULL,
		read_at         DATETIME(3)  NULL,
		created_at      DATETIME(3)  NOT NULL,
		INDEX idx_notifications_recipient (recipient_id, created_at),
		INDEX idx_notifications_announcement (announcement_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id            VARCHAR(36) NOT NULL PRIMARY KEY,
		actor_id      VARCHAR(36) NOT NULL,
		action_kind   VARCHAR(32) NOT NULL,
		resource_type VARCHAR(32) NOT NULL,
		resource_id   VARCHAR(36) NOT NULL,
		detail        TEXT        NOT NULL,
		created_at    DATETIME(3) NOT NULL,
		INDEX idx_audit_resource (resource_type, resource_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id           TEXT     NOT NULL PRIMARY KEY,
		role         TEXT     NOT NULL,
		status       TEXT     NOT NULL DEFAULT 'active',
		display_name TEXT     NOT NULL DEFAULT '',
		email        TEXT     NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles (role)`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id              TEXT     NOT NULL PRIMARY KEY,
		title           TEXT     NOT NULL,
		content         TEXT     NOT NULL,
		status          TEXT     NOT NULL,
		priority        TEXT     NOT NULL,
		target_audience TEXT     NOT NULL,
		target_user_id  TEXT     NULL,
		scheduled_for   DATETIME NULL,
		created_by      TEXT     NOT NULL,
		created_at      DATETIME NOT NULL,
		updated_at      DATETIME NOT NULL,
		published_at    DATETIME NULL,
		archived_at     DATETIME NULL,
		views           INTEGER  NOT NULL DEFAULT 0,
		engagement_rate REAL     NOT NULL DEFAULT 0,
		tags            TEXT     NOT NULL DEFAULT '',
		action_url      TEXT     NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_status ON announcements (status, scheduled_for)`,
	`CREATE INDEX IF NOT EXISTS idx_announcements_created ON announcements (created_at)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id              TEXT     NOT NULL PRIMARY KEY,
		recipient_id    TEXT     NOT NULL,
		announcement_id TEXT     NULL,
		batch_id        TEXT     NOT NULL DEFAULT '',
		type            TEXT     NOT NULL,
		category        TEXT     NOT NULL,
		title           TEXT     NOT NULL,
		message         TEXT     NOT NULL,
		payload         TEXT     NOT NULL,
		action_url      TEXT     NOT NULL DEFAULT '',
		priority        TEXT     NOT NULL,
		read_at         DATETIME NULL,
		created_at      DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_announcement ON notifications (announcement_id)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id            TEXT     NOT NULL PRIMARY KEY,
		actor_id      TEXT     NOT NULL,
		action_kind   TEXT     NOT NULL,
		resource_type TEXT     NOT NULL,
		resource_id   TEXT     NOT NULL,
		detail        TEXT     NOT NULL,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs (resource_type, resource_id, created_at)`,
}

// Migrate 创建表结构（幂等）
func Migrate(db *sqlx.DB) error {
	var stmts []string
	switch db.DriverName() {
	case "mysql":
		stmts = mysqlSchema
	case "sqlite", "sqlite3":
		stmts = sqliteSchema
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", db.DriverName())
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("执行建表语句失败: %w", err)
		}
	}
	return nil
}

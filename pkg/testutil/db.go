// Package testutil 测试辅助工具
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"noticeboard/pkg/database"
)

// NewTestDB 创建已完成建表的内存SQLite数据库
func NewTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := database.NewSQLiteConnection(":memory:")
	if err != nil {
		t.Fatalf("创建内存数据库失败: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// SeedProfiles 批量插入身份资料，返回生成的ID
func SeedProfiles(t testing.TB, db *sqlx.DB, role string, n int) []string {
	t.Helper()

	type profileRow struct {
		ID          string    `db:"id"`
		Role        string    `db:"role"`
		Status      string    `db:"status"`
		DisplayName string    `db:"display_name"`
		Email       string    `db:"email"`
		CreatedAt   time.Time `db:"created_at"`
	}

	ids := make([]string, 0, n)
	rows := make([]profileRow, 0, n)
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%04d", role, i)
		ids = append(ids, id)
		rows = append(rows, profileRow{
			ID:          id,
			Role:        role,
			Status:      "active",
			DisplayName: id,
			Email:       id + "@example.com",
			CreatedAt:   now,
		})
	}
	if n == 0 {
		return ids
	}

	// 分批插入，避免超出SQLite占位符上限
	const chunk = 500
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		_, err := db.NamedExec(`INSERT INTO profiles (id, role, status, display_name, email, created_at)
			VALUES (:id, :role, :status, :display_name, :email, :created_at)`, rows[start:end])
		if err != nil {
			t.Fatalf("插入身份资料失败: %v", err)
		}
	}
	return ids
}

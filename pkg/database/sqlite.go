package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// NewSQLiteConnection 创建SQLite连接，path 为 ":memory:" 时使用内存数据库
func NewSQLiteConnection(path string) (*sqlx.DB, error) {
	// 统一写入可按字典序比较的时间格式
	dsn := ":memory:?_time_format=sqlite"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
		dsn = path + "?_time_format=sqlite&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	// SQLite 单写者；内存库每个连接都是独立的数据库
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	// 使用 sqlite3 作为驱动名，sqlx 据此选择 ? 占位符
	return sqlx.NewDb(sqlDB, "sqlite3"), nil
}

package database

import (
	"fmt"
	"time"

	"noticeboard/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewConnection 按配置的驱动创建数据库连接
func NewConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "", "mysql":
		return NewMySQLConnection(cfg)
	case "sqlite", "sqlite3":
		return NewSQLiteConnection(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// NewMySQLConnection 创建一个新的MySQL连接
func NewMySQLConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	// 统一使用UTC存储时间；clientFoundRows 使 UPDATE 返回匹配行数
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 配置连接池
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	return db, nil
}

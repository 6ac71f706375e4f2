package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用程序配置
type Config struct {
	APIPort    int
	LogLevel   string
	LogFile    LogFileConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWTSecret  string
	RateLimit  RateLimitConfig
	Fanout     FanoutConfig
	ChangeFeed ChangeFeedConfig
	Scheduler  SchedulerConfig
	CacheTTL   time.Duration
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // 单个文件最大大小，单位MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver     string // mysql 或 sqlite
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// Enabled Redis是否已配置
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// RateLimitRule 单个操作的限流规则
type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Backend string // memory 或 redis
	Rules   map[string]RateLimitRule
}

// FanoutConfig 通知分发配置
type FanoutConfig struct {
	BatchSize int
}

// ChangeFeedConfig 变更事件流配置
type ChangeFeedConfig struct {
	Backend      string // hub、redis 或 kafka
	Channel      string
	KafkaBrokers []string
	KafkaTopic   string
}

// SchedulerConfig 定时发布配置
type SchedulerConfig struct {
	Enabled bool
	Spec    string
}

// 默认限流规则
var defaultRateLimits = map[string]RateLimitRule{
	"create":  {Limit: 10, Window: time.Hour},
	"publish": {Limit: 20, Window: time.Hour},
	"delete":  {Limit: 5, Window: time.Hour},
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// .env 文件可选，容器环境中通常直接注入环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	rules := make(map[string]RateLimitRule, len(defaultRateLimits))
	for action, rule := range defaultRateLimits {
		envKey := "RATE_LIMIT_" + strings.ToUpper(action)
		raw := os.Getenv(envKey)
		if raw == "" {
			rules[action] = rule
			continue
		}
		parsed, err := ParseRateLimitRule(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envKey, err)
		}
		rules[action] = parsed
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}

	return &Config{
		APIPort:  getEnvInt("API_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile: LogFileConfig{
			Enabled:    getEnvBool("LOG_FILE_ENABLED", false),
			Path:       getEnv("LOG_FILE_PATH", "logs/noticeboard.log"),
			MaxSize:    getEnvInt("LOG_FILE_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_FILE_MAX_BACKUPS", 7),
			MaxAge:     getEnvInt("LOG_FILE_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_FILE_COMPRESS", true),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "mysql"),
			Host:       os.Getenv("DB_HOST"),
			Port:       getEnvInt("DB_PORT", 3306),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASSWORD"),
			DBName:     os.Getenv("DB_NAME"),
			SQLitePath: getEnv("SQLITE_PATH", "data/noticeboard.db"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 20),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		RateLimit: RateLimitConfig{
			Backend: getEnv("RATE_LIMIT_BACKEND", "memory"),
			Rules:   rules,
		},
		Fanout: FanoutConfig{
			BatchSize: getEnvInt("FANOUT_BATCH_SIZE", 1000),
		},
		ChangeFeed: ChangeFeedConfig{
			Backend:      getEnv("CHANGEFEED_BACKEND", "hub"),
			Channel:      getEnv("CHANGEFEED_CHANNEL", "noticeboard:changes"),
			KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "noticeboard.changes"),
		},
		Scheduler: SchedulerConfig{
			Enabled: getEnvBool("SCHEDULER_ENABLED", true),
			Spec:    getEnv("SCHEDULER_SPEC", "@every 1m"),
		},
		CacheTTL: cacheTTL,
	}, nil
}

// ParseRateLimitRule 解析形如 "10/1h" 的限流规则
func ParseRateLimitRule(raw string) (RateLimitRule, error) {
	limitPart, windowPart, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return RateLimitRule{}, fmt.Errorf("invalid rate limit %q, want <limit>/<window>", raw)
	}
	limit, err := strconv.Atoi(limitPart)
	if err != nil || limit <= 0 {
		return RateLimitRule{}, fmt.Errorf("invalid rate limit count %q", limitPart)
	}
	window, err := time.ParseDuration(windowPart)
	if err != nil || window <= 0 {
		return RateLimitRule{}, fmt.Errorf("invalid rate limit window %q", windowPart)
	}
	return RateLimitRule{Limit: limit, Window: window}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

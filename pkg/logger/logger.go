package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"noticeboard/config"
)

// Logger 封装zap日志库
type Logger struct {
	*zap.Logger
	lumberJackLogger *lumberjack.Logger
	stopRotate       chan struct{}
}

// NewLogger 创建一个仅输出到控制台的日志记录器
func NewLogger(level string) *Logger {
	return NewLoggerWithConfig(level, config.LogFileConfig{})
}

// NewNop 创建不输出任何内容的日志记录器，用于测试
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// NewLoggerWithConfig 使用配置创建一个新的日志记录器
func NewLoggerWithConfig(level string, logFileConfig config.LogFileConfig) *Logger {
	zapLevel := parseLevel(level)
	levelEnabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapLevel
	})

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(os.Stdout), levelEnabler),
	}

	l := &Logger{}

	// 如果启用了文件日志，添加文件输出
	if logFileConfig.Enabled && logFileConfig.Path != "" {
		logDir := filepath.Dir(logFileConfig.Path)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			panic(err)
		}

		l.lumberJackLogger = &lumberjack.Logger{
			Filename:   dailyFileName(logDir, time.Now()),
			MaxSize:    logFileConfig.MaxSize,
			MaxBackups: logFileConfig.MaxBackups,
			MaxAge:     logFileConfig.MaxAge,
			Compress:   logFileConfig.Compress,
			LocalTime:  true,
		}
		l.stopRotate = make(chan struct{})
		go l.rotateDaily(logDir)

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(l.lumberJackLogger), levelEnabler))
	}

	l.Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return l
}

// Close 停止日志轮转并刷新缓冲
func (l *Logger) Close() error {
	if l.stopRotate != nil {
		close(l.stopRotate)
		l.stopRotate = nil
	}
	_ = l.Logger.Sync()
	if l.lumberJackLogger != nil {
		return l.lumberJackLogger.Close()
	}
	return nil
}

// rotateDaily 每天零点切换到新的日志文件
func (l *Logger) rotateDaily(logDir string) {
	for {
		now := time.Now()
		next := now.Add(24 * time.Hour)
		next = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			// 先更新文件名，再进行轮转
			l.lumberJackLogger.Filename = dailyFileName(logDir, time.Now())
			_ = l.lumberJackLogger.Rotate()
		case <-l.stopRotate:
			timer.Stop()
			return
		}
	}
}

func dailyFileName(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format("2006-01-02")+".log")
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// With 返回携带固定字段的子日志记录器
func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(fieldsToZapFields(fields...)...)}
}

// Info 记录信息级别日志
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.Logger.Info(msg, fieldsToZapFields(fields...)...)
}

// Debug 记录调试级别日志
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.Logger.Debug(msg, fieldsToZapFields(fields...)...)
}

// Warn 记录警告级别日志
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.Logger.Warn(msg, fieldsToZapFields(fields...)...)
}

// Error 记录错误级别日志
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.Logger.Error(msg, fieldsToZapFields(fields...)...)
}

// Fatal 记录致命错误日志并退出程序
func (l *Logger) Fatal(msg string, fields ...interface{}) {
	l.Logger.Fatal(msg, fieldsToZapFields(fields...)...)
}

// 将通用接口转换为zap字段
func fieldsToZapFields(fields ...interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		switch f := fields[i].(type) {
		case error:
			zapFields = append(zapFields, zap.Error(f))
		case zap.Field:
			zapFields = append(zapFields, f)
		case string:
			if i+1 < len(fields) {
				zapFields = append(zapFields, zap.Any(f, fields[i+1]))
				i++
			}
		default:
			zapFields = append(zapFields, zap.Any("field", f))
		}
	}
	return zapFields
}

// Package logger 基于 zerolog 的全局日志和调班引擎日志
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化全局日志器，只有第一次调用生效
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))
		logger = zerolog.New(writer(cfg)).With().Timestamp().Logger()
	})
}

func writer(cfg Config) io.Writer {
	var out io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		// CLI 把日志写到 stderr，stdout 留给命令输出
		out = os.Stderr
	}
	if cfg.Format == "console" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}
	return out
}

// parseLevel 解析日志级别，无法识别时为 info
func parseLevel(level string) zerolog.Level {
	if level == "warning" {
		return zerolog.WarnLevel
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}

// Get 获取日志器，未初始化时使用默认配置
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

type ctxKey string

// RequestIDKey 上下文中请求ID的键
const RequestIDKey ctxKey = "request_id"

// ContextWithRequestID 将请求ID写入上下文
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID 从上下文读取请求ID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()
	if reqID := RequestID(ctx); reqID != "" {
		l = l.With().Str("request_id", reqID).Logger()
	}
	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// EngineLogger 调班引擎专用日志器
type EngineLogger struct {
	base *zerolog.Logger
}

// NewEngineLogger 创建调班引擎日志器
func NewEngineLogger() *EngineLogger {
	l := Get().With().Str("component", "engine").Logger()
	return &EngineLogger{base: &l}
}

// NewEngineLoggerFrom 基于已有日志器创建，便于测试注入输出
func NewEngineLoggerFrom(base zerolog.Logger) *EngineLogger {
	l := base.With().Str("component", "engine").Logger()
	return &EngineLogger{base: &l}
}

// Ranked 记录一次候选排名
func (l *EngineLogger) Ranked(ctx context.Context, department, shiftID string, candidates int, duration time.Duration) {
	l.event(ctx, l.base.Debug()).
		Str("department", department).
		Str("shift_id", shiftID).
		Int("candidates", candidates).
		Dur("duration", duration).
		Msg("候选员工排名完成")
}

// Assigned 记录分配结果
func (l *EngineLogger) Assigned(ctx context.Context, shiftID string, previous, current *int64, changed bool) {
	e := l.event(ctx, l.base.Info()).
		Str("shift_id", shiftID).
		Bool("changed", changed)
	if previous != nil {
		e = e.Int64("previous_employee_id", *previous)
	}
	if current != nil {
		e = e.Int64("employee_id", *current)
	}
	e.Msg("班次分配")
}

// CostsRecomputed 记录成本重算
func (l *EngineLogger) CostsRecomputed(ctx context.Context, month string, noData bool, total string) {
	l.event(ctx, l.base.Info()).
		Str("month", month).
		Bool("no_data", noData).
		Str("total", total).
		Msg("人工成本已重算")
}

// HazardsFound 记录月度检查发现的问题
func (l *EngineLogger) HazardsFound(ctx context.Context, month string, count int) {
	if count == 0 {
		return
	}
	l.event(ctx, l.base.Warn()).
		Str("month", month).
		Int("count", count).
		Msg("发现排班隐患")
}

func (l *EngineLogger) event(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if reqID := RequestID(ctx); reqID != "" {
		e = e.Str("request_id", reqID)
	}
	return e
}

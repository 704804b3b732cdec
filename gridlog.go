// Package gridlog 是 Off the Grid 服务的结构化日志库
// 将安全/性能/业务事件写入多个目标（控制台、按天轮转的日志文件、
// 可选的审计数据库与 syslog），每个目标有独立的级别/类别过滤器，
// 记录带 correlation ID 串联同一逻辑操作。
//
// 示例：
//
//	if err := gridlog.Init("info", true); err != nil {
//	    log.Fatal(err)
//	}
//	defer gridlog.Sync()
//
//	ctx := correlation.WithID(context.Background(), correlation.New())
//	gridlog.LogSecurity(ctx, core.AuthenticationFailure, "alice", map[string]any{
//	    "ip": "203.0.113.7",
//	})
package gridlog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/offgrid-labs/gridlog/config"
	"github.com/offgrid-labs/gridlog/core"
	"github.com/offgrid-labs/gridlog/correlation"
	"github.com/offgrid-labs/gridlog/internal/adapter"
	"go.uber.org/zap"
)

// === 常用类型与常量再导出 ===

type LoggerConfig = config.LoggerConfig
type OutputConfig = config.OutputConfig
type FileConfig = config.FileConfig
type DatabaseConfig = config.DatabaseConfig
type SyslogConfig = config.SyslogConfig
type EncoderConfig = config.EncoderConfig
type SamplingConfig = config.SamplingConfig
type LogLevel = config.LogLevel
type OutputType = config.OutputType
type EncodingType = config.EncodingType

type SecurityEventType = core.SecurityEventType
type BusinessEventType = core.BusinessEventType
type PerformanceMetric = core.PerformanceMetric

const (
	DebugLevel = config.DebugLevel
	InfoLevel  = config.InfoLevel
	WarnLevel  = config.WarnLevel
	ErrorLevel = config.ErrorLevel
	FatalLevel = config.FatalLevel
	PanicLevel = config.PanicLevel

	JSON    = config.JSON
	Console = config.Console
	Stdout  = config.Stdout
	File    = config.File
	DB      = config.DB
	Syslog  = config.Syslog
)

var (
	// ErrAlreadyInitialized 第二次 Init 返回；sink 集合进程内只装配一次
	ErrAlreadyInitialized = errors.New("gridlog: already initialized")

	// 全局 logger 实例（并发安全）
	globalLogger atomic.Value // *zap.Logger
	// 初始化状态标志，显式守卫重复初始化
	initialized atomic.Bool
)

// Init 以标准 sink 集合初始化日志系统：
// 控制台 + app.log + error.log + security.log + performance.log，
// 文件按天轮转。minLevel 是控制台与 app.log 的最低级别；
// 环境变量 GRIDLOG_LEVEL（或 LOG_LEVEL）存在时覆盖 minLevel，
// ENVIRONMENT 为每条记录打环境标签，GRIDLOG_DIR 覆盖日志目录。
// 进程内最多调用一次，之后返回 ErrAlreadyInitialized。
func Init(minLevel string, jsonMode bool) error {
	env := config.FromEnv()

	levelStr := minLevel
	if env.Level != "" {
		levelStr = env.Level
	}
	level, err := config.ParseLevel(levelStr)
	if err != nil {
		return err
	}

	cfg := config.Default(config.DefaultServiceName, level, jsonMode, env.Dir)
	cfg.Environment = env.Environment
	return InitWithConfig(cfg)
}

// InitWithConfig 以完整配置初始化，可追加数据库审计、syslog 等输出
// 与 Init 共享同一次性守卫。
func InitWithConfig(cfg config.LoggerConfig) error {
	if !initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	factory := func(out config.OutputConfig) (core.WriteSyncer, error) {
		return adapter.CreateSyncer(out)
	}

	logger, err := core.NewLogger(cfg, factory)
	if err != nil {
		initialized.Store(false)
		return fmt.Errorf("gridlog init failed: %w", err)
	}

	globalLogger.Store(logger)
	zap.ReplaceGlobals(logger)
	return nil
}

// Logger 获取日志器实例
// Init 之前调用返回一个开发模式应急日志器。
func Logger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger.(*zap.Logger)
	}
	return fallbackLogger()
}

// WithContext 返回绑定了上下文相关字段的日志器
// ctx 携带 correlation ID / span 时附加对应槽位。
func WithContext(ctx context.Context) *zap.Logger {
	return Logger().With(contextFields(ctx)...)
}

// contextFields 从 ctx 提取 correlation_id / span 字段
func contextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id, ok := correlation.FromContext(ctx); ok {
		fields = append(fields, zap.String("correlation_id", id.String()))
	}
	if span, ok := correlation.SpanFromContext(ctx); ok {
		fields = append(fields, zap.String("span", span))
	}
	return fields
}

// ------------------------------------------------------------------
// 事件 API（fire-and-forget，对调用方永不失败）
// ------------------------------------------------------------------

// LogSecurity 记录安全事件，路由到 security sink
func LogSecurity(ctx context.Context, eventType core.SecurityEventType, userID string, details map[string]any) {
	fields := append(contextFields(ctx),
		zap.String("event_type", string(eventType)),
		zap.Bool("security_event", true),
	)
	if userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	if len(details) > 0 {
		fields = append(fields, zap.Any("details", details))
	}
	Logger().Named(core.TargetSecurity).Warn("Security event occurred", fields...)
}

// LogPerformance 记录性能度量，路由到 performance sink
func LogPerformance(ctx context.Context, metric core.PerformanceMetric) {
	fields := append(contextFields(ctx),
		zap.String("operation", metric.Operation),
		zap.Float64("duration_ms", metric.DurationMS),
		zap.Bool("success", metric.Success),
		zap.Bool("performance_metric", true),
	)
	if len(metric.Details) > 0 {
		fields = append(fields, zap.Any("details", metric.Details))
	}
	Logger().Named(core.TargetPerformance).Info("Performance metric recorded", fields...)
}

// LogBusiness 记录业务事件，路由到 business target
func LogBusiness(ctx context.Context, eventType core.BusinessEventType, userID string, details map[string]any) {
	fields := append(contextFields(ctx),
		zap.String("event_type", string(eventType)),
		zap.Bool("business_event", true),
	)
	if userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	if len(details) > 0 {
		fields = append(fields, zap.Any("details", details))
	}
	Logger().Named(core.TargetBusiness).Info("Business event occurred", fields...)
}

// LogError 记录带上下文的错误，error_chain 为逐层展开的错误链
func LogError(ctx context.Context, err error, errCtx string, details map[string]any) {
	Logger().Error("Error occurred with context", errorFields(ctx, err, errCtx, details)...)
}

// LogCriticalError 与 LogError 相同，另带 critical=true 标记
func LogCriticalError(ctx context.Context, err error, errCtx string, details map[string]any) {
	fields := append(errorFields(ctx, err, errCtx, details), zap.Bool("critical", true))
	Logger().Error("Critical error occurred", fields...)
}

func errorFields(ctx context.Context, err error, errCtx string, details map[string]any) []zap.Field {
	fields := append(contextFields(ctx),
		zap.String("error", errMessage(err)),
		zap.String("context", errCtx),
		zap.Strings("error_chain", errorChain(err)),
	)
	if len(details) > 0 {
		fields = append(fields, zap.Any("details", details))
	}
	return fields
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}

// TimedOperation 执行 op 并记录一条性能度量，返回 op 的错误
func TimedOperation(ctx context.Context, operation string, op func() error) error {
	start := time.Now()
	err := op()
	LogPerformance(ctx, core.PerformanceMetric{
		Operation:  operation,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Success:    err == nil,
	})
	return err
}

// ------------------------------------------------------------------
// 标准日志 API（Level-based）
// ------------------------------------------------------------------

func Debug(msg string, fields ...zap.Field) { Logger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Logger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Logger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Logger().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Logger().Fatal(msg, fields...) }
func Panic(msg string, fields ...zap.Field) { Logger().Panic(msg, fields...) }

// ------------------------------------------------------------------
// Sugared Logger API（格式化输出）
// ------------------------------------------------------------------

func Debugf(template string, args ...interface{}) { Logger().Sugar().Debugf(template, args...) }
func Infof(template string, args ...interface{})  { Logger().Sugar().Infof(template, args...) }
func Warnf(template string, args ...interface{})  { Logger().Sugar().Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { Logger().Sugar().Errorf(template, args...) }

// ------------------------------------------------------------------
func String(key, val string) zap.Field { return zap.String(key, val) }
func ErrorField(err error) zap.Field   { return zap.Error(err) }

// ------------------------------------------------------------------
// 生命周期管理
// ------------------------------------------------------------------

// Sync 排空所有 sink 队列并刷新输出缓冲
// 应在程序退出前调用。
func Sync() error {
	if logger := globalLogger.Load(); logger != nil {
		return logger.(*zap.Logger).Sync()
	}
	return nil
}

// ------------------------------------------------------------------
// 内部：应急日志器（初始化失败时使用）
// ------------------------------------------------------------------

func fallbackLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	c, _ := cfg.Build()
	return c
}

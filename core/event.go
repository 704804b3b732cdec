package core

import (
	"encoding/json"
	"time"
)

// 类别标签，决定记录被路由到哪些 sink
const (
	TargetApp         = "app"
	TargetSecurity    = "security"
	TargetPerformance = "performance"
	TargetBusiness    = "business"
)

// SecurityEventType 安全事件类型（封闭集合）
type SecurityEventType string

const (
	AuthenticationAttempt SecurityEventType = "AuthenticationAttempt"
	AuthenticationFailure SecurityEventType = "AuthenticationFailure"
	AuthorizationFailure  SecurityEventType = "AuthorizationFailure"
	RateLimitExceeded     SecurityEventType = "RateLimitExceeded"
	SuspiciousActivity    SecurityEventType = "SuspiciousActivity"
	ConfigurationChange   SecurityEventType = "ConfigurationChange"
	PrivilegeEscalation   SecurityEventType = "PrivilegeEscalation"
)

// BusinessEventType 业务事件类型（封闭集合）
type BusinessEventType string

const (
	GridOrderCreated     BusinessEventType = "GridOrderCreated"
	GridOrderRedeemed    BusinessEventType = "GridOrderRedeemed"
	GridOrderFailed      BusinessEventType = "GridOrderFailed"
	MatcherBotStarted    BusinessEventType = "MatcherBotStarted"
	MatcherBotStopped    BusinessEventType = "MatcherBotStopped"
	MatcherBotError      BusinessEventType = "MatcherBotError"
	TokenPriceUpdated    BusinessEventType = "TokenPriceUpdated"
	WalletBalanceChanged BusinessEventType = "WalletBalanceChanged"
)

// PerformanceMetric 一次操作的耗时度量
type PerformanceMetric struct {
	Operation  string         `json:"operation"`
	DurationMS float64        `json:"duration_ms"`
	Success    bool           `json:"success"`
	Details    map[string]any `json:"details,omitempty"`
}

// LogRecord 单条结构化日志记录，构建后不再修改
// 序列化为一行 JSON，是下游工具解析的格式契约：
// timestamp/level/target/service/environment 恒在，
// correlation_id/span/file/line 可选，message 由事件提供时出现。
type LogRecord struct {
	Timestamp     time.Time
	Level         string
	Target        string
	Service       string
	Environment   string
	CorrelationID string
	Span          string
	Message       string
	File          string
	Line          int
	Stack         string
	Fields        map[string]any
}

// ToMap 按约定的优先级展开为一个映射：
// 基础元数据 → 上下文字段 → 事件字段 → message，后者在键冲突时覆盖前者。
func (r *LogRecord) ToMap() map[string]any {
	m := make(map[string]any, len(r.Fields)+10)
	m["timestamp"] = r.Timestamp.UTC().Format(time.RFC3339Nano)
	m["level"] = r.Level
	m["target"] = r.Target
	m["service"] = r.Service
	m["environment"] = r.Environment
	if r.File != "" {
		m["file"] = r.File
		m["line"] = r.Line
	}
	if r.Stack != "" {
		m["stacktrace"] = r.Stack
	}
	if r.CorrelationID != "" {
		m["correlation_id"] = r.CorrelationID
	}
	if r.Span != "" {
		m["span"] = r.Span
	}
	for k, v := range r.Fields {
		m[k] = v
	}
	if r.Message != "" {
		m["message"] = r.Message
	}
	return m
}

func (r *LogRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

// WriteSyncer 是字节流输出目标
type WriteSyncer interface {
	Write(p []byte) (n int, err error)
	Sync() error
	Close() error
}

// RecordWriteSyncer 可直接消费结构化记录的输出目标（数据库审计表等）
// 实现该接口的 adapter 跳过字节编码，拿到完整的 LogRecord。
type RecordWriteSyncer interface {
	WriteRecord(rec *LogRecord) error
	Sync() error
	Close() error
}

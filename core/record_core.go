package core

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/offgrid-labs/gridlog/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Filter 是单个 sink 的接受条件：最低级别 + 类别标签
type Filter struct {
	Min        zapcore.Level
	Categories map[string]struct{} // nil/空 = 接受任意 target
	DebugMode  bool
}

func NewFilter(out config.OutputConfig, debugMode bool) Filter {
	f := Filter{Min: out.Level.ZapLevel(), DebugMode: debugMode}
	if len(out.Categories) > 0 {
		f.Categories = make(map[string]struct{}, len(out.Categories))
		for _, c := range out.Categories {
			f.Categories[c] = struct{}{}
		}
	}
	return f
}

// EnabledLevel 只看级别（zap 的快速路径）
func (f Filter) EnabledLevel(lvl zapcore.Level) bool {
	return lvl >= f.Min || (f.DebugMode && lvl == zapcore.DebugLevel)
}

// Accepts 级别与类别同时命中才接受
func (f Filter) Accepts(lvl zapcore.Level, target string) bool {
	if !f.EnabledLevel(lvl) {
		return false
	}
	if f.Categories == nil {
		return true
	}
	// Named 子 logger 形如 "security.matcher"，按首段归类
	if i := strings.IndexByte(target, '.'); i >= 0 {
		target = target[:i]
	}
	_, ok := f.Categories[target]
	return ok
}

// RecordCoreParams 装配一个 sink core 所需的全部参数
type RecordCoreParams struct {
	SinkName    string
	Service     string
	Environment string
	Encoding    config.EncodingType
	Filter      Filter
	Sink        WriteSyncer       // 字节路径
	RecordSink  RecordWriteSyncer // 结构化路径（可选）
	ShortCaller bool
}

// RecordCore 实现 zapcore.Core
// 每个 sink 一个实例：独立过滤、独立装配 LogRecord、独立写出。
// Write 对调用方永远成功，sink 故障计入指标并打到 stderr，
// 不会影响其余 sink，也不会传回业务代码。
type RecordCore struct {
	p      RecordCoreParams
	fields []zap.Field
}

func NewRecordCore(p RecordCoreParams) zapcore.Core {
	return &RecordCore{p: p}
}

func (c *RecordCore) Enabled(level zapcore.Level) bool {
	return c.p.Filter.EnabledLevel(level)
}

func (c *RecordCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &RecordCore{
		p:      c.p,
		fields: append(append([]zap.Field(nil), c.fields...), fields...),
	}
	return clone
}

func (c *RecordCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.p.Filter.Accepts(ent.Level, targetOf(ent)) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *RecordCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	rec := c.toRecord(ent, fields)

	if c.p.RecordSink != nil {
		if err := c.p.RecordSink.WriteRecord(rec); err != nil {
			c.reportFailure("record_sink_failed", err)
		} else {
			ObserveWritten(c.p.SinkName)
		}
		if c.p.Sink == nil {
			return nil
		}
	}

	if c.p.Sink == nil {
		return nil
	}

	line := c.encode(rec)
	if _, err := c.p.Sink.Write(line); err != nil {
		c.reportFailure("sink_write_failed", err)
		return nil
	}
	ObserveWritten(c.p.SinkName)
	return nil
}

func (c *RecordCore) Sync() error {
	var err error
	if c.p.Sink != nil {
		if e := c.p.Sink.Sync(); e != nil {
			err = e
		}
	}
	if c.p.RecordSink != nil {
		if e := c.p.RecordSink.Sync(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// toRecord 装配一条 LogRecord：
// zap entry 提供时间/级别/target/调用位置，
// 访问器提取事件字段并提升 message 与上下文槽位。
func (c *RecordCore) toRecord(ent zapcore.Entry, fields []zapcore.Field) *LogRecord {
	combined := fields
	if len(c.fields) > 0 {
		combined = make([]zap.Field, 0, len(c.fields)+len(fields))
		combined = append(combined, c.fields...)
		combined = append(combined, fields...)
	}
	vis := newFieldVisitor().visit(combined)

	rec := &LogRecord{
		Timestamp:     ent.Time,
		Level:         ent.Level.String(),
		Target:        targetOf(ent),
		Service:       c.p.Service,
		Environment:   c.p.Environment,
		CorrelationID: vis.correlationID,
		Span:          vis.span,
		Message:       ent.Message,
		Stack:         ent.Stack,
		Fields:        vis.fields,
	}
	// 名为 message 的字段按约定覆盖入口消息
	if vis.message != "" {
		rec.Message = vis.message
	}
	if ent.Caller.Defined {
		if c.p.ShortCaller {
			rec.File = ent.Caller.TrimmedPath()
		} else {
			rec.File = ent.Caller.File
		}
		rec.Line = ent.Caller.Line
	}
	return rec
}

// encode 序列化为一行输出，失败时回退到最小记录，不丢事件
func (c *RecordCore) encode(rec *LogRecord) []byte {
	if c.p.Encoding == config.Console {
		return c.encodeConsole(rec)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		fallback := &LogRecord{
			Timestamp:   rec.Timestamp,
			Level:       rec.Level,
			Target:      rec.Target,
			Service:     rec.Service,
			Environment: rec.Environment,
			Message:     fmt.Sprintf("format error: %v (original message: %s)", err, rec.Message),
		}
		b, _ = json.Marshal(fallback)
	}
	return append(b, '\n')
}

// encodeConsole 人类可读的单行形式
func (c *RecordCore) encodeConsole(rec *LogRecord) []byte {
	var b strings.Builder
	b.WriteString(rec.Timestamp.UTC().Format(time.RFC3339))
	b.WriteByte('\t')
	b.WriteString(strings.ToUpper(rec.Level))
	b.WriteByte('\t')
	b.WriteString(rec.Target)
	b.WriteByte('\t')
	if rec.CorrelationID != "" {
		b.WriteByte('[')
		b.WriteString(rec.CorrelationID)
		b.WriteString("]\t")
	}
	b.WriteString(rec.Message)

	if len(rec.Fields) > 0 {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\t{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, rec.Fields[k])
		}
		b.WriteByte('}')
	}
	if rec.File != "" {
		fmt.Fprintf(&b, "\t(%s:%d)", rec.File, rec.Line)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func (c *RecordCore) reportFailure(kind string, err error) {
	ObserveWriteFailure(c.p.SinkName)
	fmt.Fprintf(os.Stderr, "gridlog: %s sink=%s: %v\n", kind, c.p.SinkName, err)
}

func targetOf(ent zapcore.Entry) string {
	if ent.LoggerName == "" {
		return TargetApp
	}
	return ent.LoggerName
}

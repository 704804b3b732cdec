package core

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/offgrid-labs/gridlog/config"
	"go.uber.org/zap/zapcore"
)

// dynamicSampler 在时间窗口内限制重复日志量
// error 及以上、security target 的记录永不采样：
// 审计链路不允许有洞。
// 窗口计数在 Check 路径上惰性清零，没有后台协程，
// 重建 logger 不会泄漏任何资源。
type dynamicSampler struct {
	zapcore.Core
	st *samplerState
}

// samplerState 在 With 克隆之间共享：同一窗口、同一配额
type samplerState struct {
	initial     int32
	thereafter  int32
	window      int64 // 纳秒
	windowStart atomic.Int64
	count       atomic.Int32
}

func newSampler(core zapcore.Core, cfg config.SamplingConfig) (zapcore.Core, error) {
	if !cfg.Enabled {
		return core, nil
	}

	st := &samplerState{
		initial:    int32(cfg.Initial),
		thereafter: int32(cfg.Thereafter),
		window:     int64(cfg.Window),
	}
	st.windowStart.Store(time.Now().UnixNano())

	return &dynamicSampler{Core: core, st: st}, nil
}

func (s *dynamicSampler) With(fields []zapcore.Field) zapcore.Core {
	return &dynamicSampler{
		Core: s.Core.With(fields),
		st:   s.st,
	}
}

func (s *dynamicSampler) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.Level >= zapcore.ErrorLevel || exemptTarget(ent.LoggerName) {
		return s.Core.Check(ent, ce)
	}

	// 窗口过期时清零计数；CAS 保证并发下只清一次
	now := time.Now().UnixNano()
	start := s.st.windowStart.Load()
	if now-start >= s.st.window {
		if s.st.windowStart.CompareAndSwap(start, now) {
			s.st.count.Store(0)
		}
	}

	count := s.st.count.Add(1)
	if count <= s.st.initial ||
		(count-s.st.initial)%s.st.thereafter == 0 {
		return s.Core.Check(ent, ce)
	}
	return ce
}

func exemptTarget(name string) bool {
	return name == TargetSecurity || strings.HasPrefix(name, TargetSecurity+".")
}

package core

import (
	"errors"
	"fmt"

	"github.com/offgrid-labs/gridlog/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SyncerFactory 按输出配置创建目标写入器
type SyncerFactory func(config.OutputConfig) (WriteSyncer, error)

// NewLogger 按配置装配日志器：
// 每个启用的输出得到一个独立的 RecordCore（自己的过滤器、
// 自己的编码、自己的目标），zapcore.NewTee 把记录同时提供给
// 所有 core——某个 sink 拒绝或失败不影响其他 sink。
func NewLogger(cfg config.LoggerConfig, factory SyncerFactory) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cores, err := buildCores(cfg, factory)
	if err != nil {
		return nil, err
	}

	coreTee := zapcore.NewTee(cores...)

	if cfg.Sampling.Enabled {
		coreTee, err = newSampler(coreTee, cfg.Sampling)
		if err != nil {
			return nil, fmt.Errorf("sampler init failed: %w", err)
		}
	}

	opts := []zap.Option{
		zap.AddStacktrace(cfg.Encoder.StackLevel.ZapLevel()),
	}
	if cfg.Encoder.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	logger := zap.New(coreTee, opts...)

	// 全局自定义字段进入每条记录的字段映射
	for k, v := range cfg.Encoder.CustomFields {
		logger = logger.With(zap.String(k, v))
	}

	return logger, nil
}

func buildCores(cfg config.LoggerConfig, factory SyncerFactory) ([]zapcore.Core, error) {
	var cores []zapcore.Core

	for _, out := range cfg.Outputs {
		if !out.Enabled {
			continue
		}

		syncer, err := factory(out)
		if err != nil {
			return nil, fmt.Errorf("creating syncer for %s output failed: %w", out.Type, err)
		}

		params := RecordCoreParams{
			SinkName:    out.Name,
			Service:     cfg.ServiceName,
			Environment: cfg.Environment,
			Encoding:    out.Encoding,
			Filter:      NewFilter(out, cfg.DebugMode),
			ShortCaller: cfg.Encoder.ShortCaller,
		}

		// 能直接消费结构化记录的 adapter（审计表）走记录路径，
		// 其余走字节路径。
		if rs, ok := syncer.(RecordWriteSyncer); ok {
			params.RecordSink = rs
		} else {
			params.Sink = syncer
		}

		cores = append(cores, NewRecordCore(params))
	}

	if len(cores) == 0 {
		return nil, errors.New("no enabled log outputs")
	}

	return cores, nil
}

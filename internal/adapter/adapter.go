package adapter

import (
	"errors"
	"fmt"

	"github.com/offgrid-labs/gridlog/config"
	"github.com/offgrid-labs/gridlog/core"
)

// CreateSyncer 根据输出配置创建目标写入器
// 文件与 syslog 输出包上有界异步队列：调用方只入队，
// 落盘/网络 I/O 由每个 sink 自己的后台协程完成，
// 队列满时入队阻塞（不静默丢审计日志）。
// 控制台保持同步直写；数据库 adapter 自带批量协程。
func CreateSyncer(out config.OutputConfig) (core.WriteSyncer, error) {
	if !out.Enabled {
		return nil, fmt.Errorf("output type disabled: %s", out.Type)
	}

	switch out.Type {
	case config.Stdout:
		return newConsoleAdapter()
	case config.File:
		if out.File == nil {
			return nil, errors.New("file configuration missing")
		}
		fa, err := newFileAdapter(*out.File)
		if err != nil {
			return nil, err
		}
		return newAsyncSyncer(out.Name, fa, out.QueueSize), nil
	case config.DB:
		if out.Database == nil {
			return nil, errors.New("database configuration missing")
		}
		return newAuditStore(out.Name, *out.Database)
	case config.Syslog:
		if out.Syslog == nil {
			return nil, errors.New("syslog configuration missing")
		}
		sa, err := newSyslogAdapter(*out.Syslog)
		if err != nil {
			return nil, err
		}
		return newAsyncSyncer(out.Name, sa, out.QueueSize), nil
	default:
		return nil, fmt.Errorf("unsupported output type: %s", out.Type)
	}
}

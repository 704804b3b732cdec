package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/offgrid-labs/gridlog/config"
	"github.com/offgrid-labs/gridlog/core"
)

// fileAdapter 按天轮转的日志文件
// lumberjack 负责大小上限、历史数量与压缩；
// 跨天（UTC）时显式触发一次轮转，保证每个文件最多覆盖一天。
type fileAdapter struct {
	lj     *lumberjack.Logger
	daily  bool
	mu     sync.Mutex
	day    atomic.Int64 // 上次写入的 UTC 天序号
	closed atomic.Bool
}

func newFileAdapter(cfg config.FileConfig) (core.WriteSyncer, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory failed: %w", err)
	}

	if cfg.RotateOnStartup {
		if err := rotateOnStartup(cfg.Path); err != nil {
			return nil, err
		}
	}

	fa := &fileAdapter{
		lj: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		},
		daily: cfg.RotateDaily,
	}
	fa.day.Store(dayNumber(time.Now()))

	return fa, nil
}

func (f *fileAdapter) Write(p []byte) (n int, err error) {
	if f.closed.Load() {
		return 0, os.ErrClosed
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.daily {
		today := dayNumber(time.Now())
		if f.day.Swap(today) != today {
			if err := f.lj.Rotate(); err != nil {
				// 轮转失败继续写旧文件，写入不中断
				fmt.Fprintf(os.Stderr, "gridlog: daily rotate failed for %s: %v\n", f.lj.Filename, err)
			}
		}
	}
	return f.lj.Write(p)
}

func (f *fileAdapter) Sync() error {
	// lumberjack 每次 Write 都落到文件，无缓冲可刷
	return nil
}

func (f *fileAdapter) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.lj.Close(); err != nil {
		return fmt.Errorf("file close failed: %w", err)
	}
	return nil
}

func dayNumber(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}

// rotateOnStartup 启动时把已有文件改名为带时间戳的备份
func rotateOnStartup(logPath string) error {
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("checking log file failed: %w", err)
	}

	backup := fmt.Sprintf("%s.%s", logPath, time.Now().UTC().Format("20060102_150405"))

	var lastErr error
	for i := 0; i < 3; i++ {
		if err := os.Rename(logPath, backup); err != nil {
			// 文件已被其他进程处理
			if os.IsNotExist(err) {
				return nil
			}
			lastErr = err
			time.Sleep(time.Millisecond * 100 * time.Duration(i+1))
			continue
		}
		return nil
	}

	return fmt.Errorf("startup rotation failed after retries: %w", lastErr)
}

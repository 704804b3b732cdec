package adapter

import (
	"os"

	"github.com/offgrid-labs/gridlog/core"
)

// consoleAdapter 同步写 stdout
// 控制台不走异步队列：交互式输出要求即时可见。
type consoleAdapter struct{}

func newConsoleAdapter() (core.WriteSyncer, error) {
	return &consoleAdapter{}, nil
}

func (s *consoleAdapter) Write(p []byte) (n int, err error) {
	return os.Stdout.Write(p)
}

func (s *consoleAdapter) Sync() error {
	// stdout 的 fsync 在部分平台会报 EINVAL，忽略
	_ = os.Stdout.Sync()
	return nil
}

func (s *consoleAdapter) Close() error { return nil }

package adapter

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSyncer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	syncs  int
	closes int
}

func (c *captureSyncer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *captureSyncer) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncs++
	return nil
}

func (c *captureSyncer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *captureSyncer) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := strings.TrimRight(c.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestAsyncPreservesPerSinkOrder(t *testing.T) {
	dst := &captureSyncer{}
	a := newAsyncSyncer("test", dst, 8)

	const n = 100
	for i := 0; i < n; i++ {
		_, err := a.Write([]byte(fmt.Sprintf("record-%03d\n", i)))
		require.NoError(t, err)
	}
	require.NoError(t, a.Sync())

	lines := dst.lines()
	require.Len(t, lines, n)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("record-%03d", i), line)
	}
}

func TestAsyncSyncDrainsQueueAndFlushesTarget(t *testing.T) {
	dst := &captureSyncer{}
	a := newAsyncSyncer("test", dst, 64)

	for i := 0; i < 10; i++ {
		_, err := a.Write([]byte("x\n"))
		require.NoError(t, err)
	}
	require.NoError(t, a.Sync())

	assert.Len(t, dst.lines(), 10)
	assert.GreaterOrEqual(t, dst.syncs, 1)
}

func TestAsyncCopiesCallerBuffer(t *testing.T) {
	dst := &captureSyncer{}
	a := newAsyncSyncer("test", dst, 8)

	buf := []byte("original\n")
	_, err := a.Write(buf)
	require.NoError(t, err)
	// zap 会复用编码缓冲，入队后修改调用方缓冲不应影响输出
	copy(buf, []byte("clobber!\n"))

	require.NoError(t, a.Sync())
	assert.Equal(t, []string{"original"}, dst.lines())
}

func TestAsyncCloseDrainsAndClosesTarget(t *testing.T) {
	dst := &captureSyncer{}
	a := newAsyncSyncer("test", dst, 64)

	for i := 0; i < 5; i++ {
		_, err := a.Write([]byte("x\n"))
		require.NoError(t, err)
	}
	require.NoError(t, a.Close())

	assert.Len(t, dst.lines(), 5)
	assert.Equal(t, 1, dst.closes)
}

func TestAsyncWriteAfterCloseFails(t *testing.T) {
	a := newAsyncSyncer("test", &captureSyncer{}, 8)
	require.NoError(t, a.Close())

	_, err := a.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestAsyncCloseIdempotent(t *testing.T) {
	a := newAsyncSyncer("test", &captureSyncer{}, 8)
	require.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}

// 写入与关闭并发时的约定：Write 返回 nil 的记录一定被刷写，
// 没有被刷写的 Write 一定返回错误（并计入丢弃指标）。
func TestAsyncWriteCloseRaceNeverLosesAckedRecord(t *testing.T) {
	for round := 0; round < 20; round++ {
		dst := &captureSyncer{}
		a := newAsyncSyncer("test", dst, 4)

		const writers = 8
		var mu sync.Mutex
		acked := map[string]bool{}

		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; ; i++ {
					line := fmt.Sprintf("w%d-%d", w, i)
					if _, err := a.Write([]byte(line + "\n")); err != nil {
						return
					}
					mu.Lock()
					acked[line] = true
					mu.Unlock()
				}
			}(w)
		}

		require.NoError(t, a.Close())
		wg.Wait()

		flushed := map[string]bool{}
		for _, line := range dst.lines() {
			flushed[line] = true
		}
		mu.Lock()
		for line := range acked {
			assert.True(t, flushed[line], "acked record %s must be flushed", line)
		}
		mu.Unlock()
	}
}

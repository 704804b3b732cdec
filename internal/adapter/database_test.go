package adapter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/offgrid-labs/gridlog/config"
	"github.com/offgrid-labs/gridlog/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAuditStore 不连数据库，落库入口替换为内存收集器
func newTestAuditStore(t *testing.T, batchSize int) (*auditStore, func() []AuditEntry) {
	t.Helper()

	var mu sync.Mutex
	var inserted []AuditEntry

	ctx, cancel := context.WithCancel(context.Background())
	s := &auditStore{
		name: "audit",
		cfg: config.DatabaseConfig{
			BatchSize:     batchSize,
			BatchInterval: time.Hour,
			RetryDelay:    time.Millisecond,
		},
		records: make(chan *core.LogRecord, 64),
		flush:   make(chan chan struct{}),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.insertFn = func(_ context.Context, batch []AuditEntry) {
		mu.Lock()
		inserted = append(inserted, batch...)
		mu.Unlock()
	}
	go s.run(ctx)

	t.Cleanup(func() {
		cancel()
		<-s.done
	})
	return s, func() []AuditEntry {
		mu.Lock()
		defer mu.Unlock()
		return append([]AuditEntry(nil), inserted...)
	}
}

func TestAuditStoreSyncFlushesPendingBatch(t *testing.T) {
	s, inserted := newTestAuditStore(t, 100)

	require.NoError(t, s.WriteRecord(&core.LogRecord{Message: "pending-1", Level: "warn"}))
	require.NoError(t, s.WriteRecord(&core.LogRecord{Message: "pending-2", Level: "info"}))

	// 批量未满、定时器远未到期，Sync 必须立即落库
	require.NoError(t, s.Sync())

	got := inserted()
	require.Len(t, got, 2)
	assert.Equal(t, "pending-1", got[0].Message)
	assert.Equal(t, "pending-2", got[1].Message)
}

func TestAuditStoreSyncWithEmptyQueueIsNoop(t *testing.T) {
	s, inserted := newTestAuditStore(t, 100)

	require.NoError(t, s.Sync())
	assert.Empty(t, inserted())
}

func TestAuditStoreBatchSizeTriggersInsert(t *testing.T) {
	s, inserted := newTestAuditStore(t, 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.WriteRecord(&core.LogRecord{Message: "batched"}))
	}

	// 不调用 Sync，批量大小达到后写入协程自行落库
	assert.Eventually(t, func() bool {
		return len(inserted()) == 3
	}, time.Second, 10*time.Millisecond)
}

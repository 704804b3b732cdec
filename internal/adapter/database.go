package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/offgrid-labs/gridlog/config"
	"github.com/offgrid-labs/gridlog/core"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// AuditEntry 审计表行，一行对应一条记录
type AuditEntry struct {
	Time          time.Time       `json:"time" gorm:"column:time"`
	Level         string          `json:"level" gorm:"column:level"`
	Target        string          `json:"target" gorm:"column:target"`
	Service       string          `json:"service" gorm:"column:service"`
	Environment   string          `json:"environment" gorm:"column:environment"`
	CorrelationID string          `json:"correlation_id" gorm:"column:correlation_id"`
	Message       string          `json:"message" gorm:"column:message"`
	Fields        json.RawMessage `json:"fields" gorm:"column:fields;type:json"`
}

// auditStore 把结构化记录成批写入宿主应用的数据库
// 实现 core.RecordWriteSyncer：RecordCore 直接递交 LogRecord，
// 不经过字节编码。写入由后台协程按批量大小或时间间隔触发，
// 通道有界且入队阻塞，与文件 sink 同一背压策略。
type auditStore struct {
	name    string
	cfg     config.DatabaseConfig
	db      *gorm.DB
	records chan *core.LogRecord
	flush   chan chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}

	// 落库入口，测试替换用
	insertFn func(ctx context.Context, batch []AuditEntry)
}

func newAuditStore(name string, cfg config.DatabaseConfig) (core.WriteSyncer, error) {
	var dialector gorm.Dialector
	switch cfg.DriverName {
	case "mysql":
		dialector = mysql.Open(cfg.DataSourceName)
	case "postgres":
		dialector = postgres.Open(cfg.DataSourceName)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.DriverName)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening audit database failed: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)

	ctx, cancel := context.WithCancel(context.Background())
	s := &auditStore{
		name:    name,
		cfg:     cfg,
		db:      gdb,
		records: make(chan *core.LogRecord, cfg.BatchSize*10),
		flush:   make(chan chan struct{}),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.insertFn = s.insert
	go s.run(ctx)
	return s, nil
}

// WriteRecord 实现 core.RecordWriteSyncer
func (s *auditStore) WriteRecord(rec *core.LogRecord) error {
	select {
	case s.records <- rec:
		return nil
	case <-s.done:
		core.ObserveDropped(s.name)
		return os.ErrClosed
	}
}

// Write 字节路径兜底：不应被 RecordCore 走到，保留以满足接口
func (s *auditStore) Write(p []byte) (int, error) {
	rec := &core.LogRecord{
		Timestamp: time.Now().UTC(),
		Level:     "unknown",
		Target:    core.TargetApp,
		Message:   "raw byte log entry",
		Fields:    map[string]any{"raw_bytes": string(p)},
	}
	if err := s.WriteRecord(rec); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Sync 让写入协程立即落库当前批次并等待完成
// Sync 返回后，之前 WriteRecord 成功的记录都已交给数据库。
func (s *auditStore) Sync() error {
	ack := make(chan struct{})
	select {
	case s.flush <- ack:
	case <-s.done:
		return nil
	}
	select {
	case <-ack:
	case <-s.done:
	}
	return nil
}

func (s *auditStore) Close() error {
	s.cancel()
	<-s.done
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *auditStore) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.BatchInterval)
	defer ticker.Stop()

	var batch []AuditEntry

	for {
		select {
		case rec := <-s.records:
			batch = append(batch, s.toEntry(rec))
			if len(batch) >= s.cfg.BatchSize {
				s.insertFn(ctx, batch)
				batch = batch[:0]
			}
		case ack := <-s.flush:
			// 先排空通道里已入队的记录再落库
			batch = s.drainInto(batch)
			if len(batch) > 0 {
				s.insertFn(ctx, batch)
				batch = batch[:0]
			}
			close(ack)
		case <-ticker.C:
			if len(batch) > 0 {
				s.insertFn(ctx, batch)
				batch = batch[:0]
			}
		case <-ctx.Done():
			// 排空通道后带重试做最终落库
			batch = s.drainInto(batch)
			s.finalFlush(batch)
			return
		}
	}
}

func (s *auditStore) drainInto(batch []AuditEntry) []AuditEntry {
	for {
		select {
		case rec := <-s.records:
			batch = append(batch, s.toEntry(rec))
		default:
			return batch
		}
	}
}

func (s *auditStore) toEntry(rec *core.LogRecord) AuditEntry {
	fieldsBytes, err := json.Marshal(rec.Fields)
	if err != nil {
		fieldsBytes = []byte("{}")
	}
	return AuditEntry{
		Time:          rec.Timestamp,
		Level:         rec.Level,
		Target:        rec.Target,
		Service:       rec.Service,
		Environment:   rec.Environment,
		CorrelationID: rec.CorrelationID,
		Message:       rec.Message,
		Fields:        fieldsBytes,
	}
}

func (s *auditStore) insert(ctx context.Context, batch []AuditEntry) {
	err := s.db.WithContext(ctx).Table(s.cfg.TableName).CreateInBatches(batch, s.cfg.BatchSize).Error
	if err != nil {
		core.ObserveWriteFailure(s.name)
		fmt.Fprintf(os.Stderr, "gridlog: audit insert failed sink=%s: %v\n", s.name, err)
	}
}

func (s *auditStore) finalFlush(batch []AuditEntry) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	for i := 0; i < 3; i++ {
		err = s.db.WithContext(ctx).Table(s.cfg.TableName).CreateInBatches(batch, s.cfg.BatchSize).Error
		if err == nil {
			return
		}
		time.Sleep(s.cfg.RetryDelay)
	}
	core.ObserveWriteFailure(s.name)
	fmt.Fprintf(os.Stderr, "gridlog: final audit flush failed sink=%s: %v\n", s.name, err)
}

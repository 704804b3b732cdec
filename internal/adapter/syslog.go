package adapter

import (
	"crypto/sha256"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/offgrid-labs/gridlog/config"
	"github.com/offgrid-labs/gridlog/core"
)

var ErrSyslogUnavailable = errors.New("syslog server unavailable")

const (
	syslogDialTimeout  = 5 * time.Second
	syslogWriteTimeout = 3 * time.Second
	flockRetryDelay    = 100 * time.Millisecond
	// severity=notice，facility 来自配置
	syslogSeverity = 5
)

// syslogAdapter 把编码好的 JSON 行转发到 syslog 服务器
// 连接断开时惰性重连；重连尝试用文件锁串行化，
// 避免同一主机上的多个进程同时打爆服务端。
// 缓冲与背压由外层 asyncSyncer 提供。
type syslogAdapter struct {
	cfg      config.SyslogConfig
	hostname string
	tlsCfg   *tls.Config
	fileLock *flock.Flock

	mu   sync.Mutex
	conn net.Conn
}

func newSyslogAdapter(cfg config.SyslogConfig) (core.WriteSyncer, error) {
	hostname := cfg.StaticHost
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("hostname lookup failed: %w", err)
		}
		hostname = h
	}

	a := &syslogAdapter{
		cfg:      cfg,
		hostname: hostname,
	}

	if cfg.Secure {
		a.tlsCfg = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}
	}

	lockKey := fmt.Sprintf("%s-%s", cfg.Address, cfg.Tag)
	lockPath := filepath.Join(os.TempDir(), fmt.Sprintf("gridlog-%x.lock", sha256.Sum256([]byte(lockKey))))
	a.fileLock = flock.New(lockPath)

	if err := a.connect(); err != nil {
		return nil, fmt.Errorf("initial syslog connection failed: %w", err)
	}
	return a, nil
}

func (a *syslogAdapter) connect() error {
	// 重连尝试跨进程串行化
	locked, err := a.fileLock.TryLock()
	if err == nil && !locked {
		deadline := time.Now().Add(syslogDialTimeout)
		for !locked && time.Now().Before(deadline) {
			time.Sleep(flockRetryDelay)
			locked, err = a.fileLock.TryLock()
		}
	}
	if locked {
		defer a.fileLock.Unlock()
	}

	dialer := net.Dialer{Timeout: syslogDialTimeout}
	var conn net.Conn
	if a.tlsCfg != nil && a.cfg.Network == "tcp" {
		conn, err = tls.DialWithDialer(&dialer, a.cfg.Network, a.cfg.Address, a.tlsCfg)
	} else {
		conn, err = dialer.Dial(a.cfg.Network, a.cfg.Address)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyslogUnavailable, err)
	}

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
	}
	a.conn = conn
	a.mu.Unlock()
	return nil
}

// Write 将一行 JSON 包上 RFC3164 头发往服务器
// 失败时先重连一次再重试，仍失败则交给上层计数。
func (a *syslogAdapter) Write(p []byte) (int, error) {
	frame := a.frame(p)

	if err := a.send(frame); err != nil {
		if rerr := a.connect(); rerr != nil {
			return 0, rerr
		}
		if err = a.send(frame); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (a *syslogAdapter) send(frame []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return ErrSyslogUnavailable
	}
	_ = a.conn.SetWriteDeadline(time.Now().Add(syslogWriteTimeout))
	_, err := a.conn.Write(frame)
	return err
}

func (a *syslogAdapter) frame(p []byte) []byte {
	pri := a.cfg.Facility*8 + syslogSeverity
	msg := strings.TrimRight(string(p), "\n")
	line := fmt.Sprintf("<%d>%s %s %s: %s\n",
		pri,
		time.Now().UTC().Format(time.Stamp),
		a.hostname,
		a.cfg.Tag,
		msg,
	)
	return []byte(line)
}

func (a *syslogAdapter) Sync() error { return nil }

func (a *syslogAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		" warn ":  WarnLevel,
		"warning": WarnLevel,
		"Error":   ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLogLevelZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, WarnLevel.ZapLevel())
	assert.Equal(t, zapcore.InfoLevel, LogLevel("bogus").ZapLevel())
}

func TestOutputConfigDefaults(t *testing.T) {
	oc := OutputConfig{Type: Stdout, Level: InfoLevel, Encoding: JSON, Enabled: true}
	require.NoError(t, oc.Validate())
	assert.Equal(t, "console", oc.Name)
	assert.Equal(t, DefaultQueueSize, oc.QueueSize)
}

func TestFileConfigValidation(t *testing.T) {
	fc := FileConfig{Path: "relative/app.log"}
	assert.Error(t, fc.Validate())

	fc = FileConfig{Path: "/var/log/off-the-grid/app.log"}
	require.NoError(t, fc.Validate())
	assert.Equal(t, DefaultFileMaxSizeMB, fc.MaxSizeMB)
	assert.Equal(t, DefaultMaxBackups, fc.MaxBackups)
	assert.Equal(t, DefaultMaxAgeDays, fc.MaxAgeDays)
}

func TestDatabaseConfigValidation(t *testing.T) {
	dc := DatabaseConfig{DriverName: "mysql"}
	assert.Error(t, dc.Validate(), "dsn required")

	dc = DatabaseConfig{DriverName: "oracle", DataSourceName: "x", TableName: "t"}
	assert.Error(t, dc.Validate(), "unsupported driver")

	dc = DatabaseConfig{DriverName: "postgres", DataSourceName: "postgres://x", TableName: "audit_log"}
	require.NoError(t, dc.Validate())
	assert.Equal(t, DefaultBatchSize, dc.BatchSize)
	assert.Equal(t, DefaultBatchInterval, dc.BatchInterval)
	assert.Equal(t, DefaultRetryDelay, dc.RetryDelay)
}

func TestSyslogConfigValidation(t *testing.T) {
	sc := SyslogConfig{Address: "127.0.0.1:514", Tag: "grid", Facility: 42}
	assert.Error(t, sc.Validate(), "facility out of range")

	sc = SyslogConfig{Address: "127.0.0.1:514", Tag: "grid", Facility: 16}
	require.NoError(t, sc.Validate())
	assert.Equal(t, "tcp", sc.Network)
}

func TestSamplingConfigValidation(t *testing.T) {
	sc := SamplingConfig{Enabled: true}
	assert.Error(t, sc.Validate())

	sc = SamplingConfig{Enabled: true, Initial: 10, Thereafter: 5, Window: time.Second}
	assert.NoError(t, sc.Validate())
}

func TestLoggerConfigValidation(t *testing.T) {
	lc := LoggerConfig{}
	assert.Error(t, lc.Validate(), "no outputs")

	lc = LoggerConfig{
		Outputs: []OutputConfig{{Type: Stdout, Level: InfoLevel, Encoding: JSON, Enabled: true}},
	}
	require.NoError(t, lc.Validate())
	assert.Equal(t, DefaultServiceName, lc.ServiceName)
	assert.Equal(t, DefaultEnvironment, lc.Environment)
	assert.Equal(t, ErrorLevel, lc.Encoder.StackLevel)
}

func TestDefaultBuildsStandardSinkSet(t *testing.T) {
	cfg := Default("off-the-grid-cli", InfoLevel, true, "/var/log/off-the-grid")
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Outputs, 5)

	byName := map[string]OutputConfig{}
	for _, out := range cfg.Outputs {
		byName[out.Name] = out
	}

	assert.Equal(t, Stdout, byName["console"].Type)
	assert.Equal(t, JSON, byName["console"].Encoding)

	assert.Equal(t, "/var/log/off-the-grid/app.log", byName["app"].File.Path)
	assert.Empty(t, byName["app"].Categories)

	assert.Equal(t, ErrorLevel, byName["error"].Level)
	assert.Equal(t, []string{"security"}, byName["security"].Categories)
	assert.Equal(t, []string{"performance"}, byName["performance"].Categories)

	for _, name := range []string{"app", "error", "security", "performance"} {
		assert.True(t, byName[name].File.RotateDaily, name)
	}
}

func TestDefaultPlainConsole(t *testing.T) {
	cfg := Default("svc", DebugLevel, false, "/tmp/logs")
	assert.Equal(t, Console, cfg.Outputs[0].Encoding)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("GRIDLOG_LEVEL", "warn")
	t.Setenv("GRIDLOG_DIR", "/tmp/grid-logs")

	env := FromEnv()
	assert.Equal(t, "staging", env.Environment)
	assert.Equal(t, "warn", env.Level)
	assert.Equal(t, "/tmp/grid-logs", env.Dir)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("GRIDLOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GRIDLOG_DIR", "")

	env := FromEnv()
	assert.Equal(t, DefaultEnvironment, env.Environment)
	assert.Empty(t, env.Level)
	assert.Equal(t, DefaultLogDir, env.Dir)
}

func TestFromEnvLogLevelFallback(t *testing.T) {
	t.Setenv("GRIDLOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "debug")

	env := FromEnv()
	assert.Equal(t, "debug", env.Level)
}

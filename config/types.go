package config

import "time"

const (
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultBatchSize     = 100
	DefaultBatchInterval = 5 * time.Second
	DefaultMaxOpenConns  = 10
	DefaultMaxIdleConns  = 5
	DefaultFileMaxSizeMB = 100
	DefaultMaxBackups    = 7
	DefaultMaxAgeDays    = 30
	DefaultQueueSize     = 1024
	DefaultLogDir        = "/var/log/off-the-grid"
	DefaultServiceName   = "off-the-grid-cli"
	DefaultEnvironment   = "development"
)

// LogLevel 定义支持的日志级别
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
	PanicLevel LogLevel = "panic"
)

// OutputType 定义支持的输出类型
type OutputType string

const (
	Stdout OutputType = "console"
	File   OutputType = "file"
	DB     OutputType = "database"
	Syslog OutputType = "syslog"
)

// EncodingType 定义编码类型
type EncodingType string

const (
	JSON    EncodingType = "json"
	Console EncodingType = "console"
)

// OutputConfig 定义单个 sink 的输出配置
// Level 与 Categories 共同构成过滤器：级别不低于 Level 且
// target 命中 Categories（为空表示任意 target）的记录才会被接受。
type OutputConfig struct {
	Type       OutputType   `json:"type"`                 // 输出类型
	Name       string       `json:"name"`                 // sink 名称（用于指标），缺省由类型推导
	Level      LogLevel     `json:"level"`                // 最低日志级别
	Categories []string     `json:"categories,omitempty"` // 接受的 target 集合，空=全部
	Encoding   EncodingType `json:"encoding"`             // 编码格式
	Enabled    bool         `json:"enabled"`              // 是否启用
	QueueSize  int          `json:"queueSize"`            // 异步队列容量（文件/网络输出）

	File     *FileConfig     `json:"file,omitempty"`     // 文件配置
	Database *DatabaseConfig `json:"database,omitempty"` // 数据库审计配置
	Syslog   *SyslogConfig   `json:"syslog,omitempty"`   // Syslog配置
}

// FileConfig 定义文件日志配置
// 文件每天轮转一次；lumberjack 负责大小上限与历史清理。
type FileConfig struct {
	Path            string `json:"path"`            // 文件路径
	MaxSizeMB       int    `json:"maxSizeMB"`       // 单文件大小上限(MB)
	MaxBackups      int    `json:"maxBackups"`      // 历史文件数量上限
	MaxAgeDays      int    `json:"maxAgeDays"`      // 历史文件保存天数
	Compress        bool   `json:"compress"`        // 是否压缩历史文件
	RotateDaily     bool   `json:"rotateDaily"`     // 跨天时强制轮转
	RotateOnStartup bool   `json:"rotateOnStartup"` // 启动时轮转
	LocalTime       bool   `json:"localTime"`       // 备份名使用本地时间
}

// DatabaseConfig 定义审计表输出配置
// 记录成批写入宿主应用自己的数据库，供安全审计查询。
type DatabaseConfig struct {
	DriverName      string        `json:"driver"`          // mysql 或 postgres
	DataSourceName  string        `json:"dsn"`             // 连接字符串
	TableName       string        `json:"tableName"`       // 表名
	BatchSize       int           `json:"batchSize"`       // 批量大小
	BatchInterval   time.Duration `json:"batchInterval"`   // 批量间隔
	MaxConnLifetime time.Duration `json:"maxConnLifeTime"` // 连接生命周期
	MaxOpenConns    int           `json:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int           `json:"maxIdleConns"`    // 最大空闲连接数
	RetryDelay      time.Duration `json:"retryDelay"`      // 重试间隔
}

// SyslogConfig 定义Syslog输出配置
type SyslogConfig struct {
	Network       string        `json:"network"`       // tcp 或 udp
	Address       string        `json:"address"`       // 服务器地址
	Tag           string        `json:"tag"`           // 应用标识
	Facility      int           `json:"facility"`      // 系统设施 0-23
	RetryDelay    time.Duration `json:"retryDelay"`    // 重连延迟
	Secure        bool          `json:"secure"`        // 使用TLS
	TLSSkipVerify bool          `json:"tlsSkipVerify"` // 跳过TLS验证
	StaticHost    string        `json:"staticHost"`    // 静态主机名
	BufferSize    int           `json:"bufferSize"`    // 缓冲区大小
}

// EncoderConfig 定义记录装配选项
// 输出字段名由线上格式契约固定，这里只控制可选元数据。
type EncoderConfig struct {
	EnableCaller bool              `json:"enableCaller"` // 记录 file/line
	ShortCaller  bool              `json:"shortCaller"`  // file 使用短路径
	StackLevel   LogLevel          `json:"stackLevel"`   // 该级别及以上附带堆栈
	CustomFields map[string]string `json:"customFields"` // 附加到每条记录的字段
}

// SamplingConfig 定义日志采样配置
// error 及以上、security target 的记录不参与采样。
type SamplingConfig struct {
	Enabled    bool          `json:"enabled"`
	Initial    int           `json:"initial"`
	Thereafter int           `json:"thereafter"`
	Window     time.Duration `json:"window"`
}

// LoggerConfig 定义核心日志配置
type LoggerConfig struct {
	ServiceName string         `json:"serviceName"` // 服务名称
	Environment string         `json:"environment"` // 环境标签（production/staging/...）
	DebugMode   bool           `json:"debugMode"`   // 调试模式
	Outputs     []OutputConfig `json:"outputs"`     // 输出配置
	Encoder     EncoderConfig  `json:"encoder"`     // 装配选项
	Sampling    SamplingConfig `json:"sampling"`    // 采样配置
}

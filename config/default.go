package config

import "path/filepath"

// 标准 sink 的 target 过滤器使用的类别标签
// 与 core 包的 Target* 常量保持一致。
const (
	categorySecurity    = "security"
	categoryPerformance = "performance"
)

// Default 构建标准的五路输出：控制台、全量 app.log、
// 仅错误 error.log、仅安全 security.log、仅性能 performance.log。
// 四个文件按天轮转，写入 dir 目录。
func Default(service string, level LogLevel, jsonMode bool, dir string) LoggerConfig {
	consoleEncoding := Console
	if jsonMode {
		consoleEncoding = JSON
	}

	file := func(name string) *FileConfig {
		return &FileConfig{
			Path:        filepath.Join(dir, name),
			RotateDaily: true,
		}
	}

	return LoggerConfig{
		ServiceName: service,
		Environment: DefaultEnvironment,
		Outputs: []OutputConfig{
			{
				Type:     Stdout,
				Name:     "console",
				Level:    level,
				Encoding: consoleEncoding,
				Enabled:  true,
			},
			{
				Type:     File,
				Name:     "app",
				Level:    level,
				Encoding: JSON,
				Enabled:  true,
				File:     file("app.log"),
			},
			{
				Type:     File,
				Name:     "error",
				Level:    ErrorLevel,
				Encoding: JSON,
				Enabled:  true,
				File:     file("error.log"),
			},
			{
				Type:       File,
				Name:       "security",
				Level:      InfoLevel,
				Categories: []string{categorySecurity},
				Encoding:   JSON,
				Enabled:    true,
				File:       file("security.log"),
			},
			{
				Type:       File,
				Name:       "performance",
				Level:      InfoLevel,
				Categories: []string{categoryPerformance},
				Encoding:   JSON,
				Enabled:    true,
				File:       file("performance.log"),
			},
		},
		Encoder: EncoderConfig{
			EnableCaller: true,
			ShortCaller:  true,
			StackLevel:   ErrorLevel,
		},
	}
}

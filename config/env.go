package config

import (
	"github.com/spf13/viper"
)

// Env 是从进程环境读出的覆盖项
// Level 为空表示没有环境覆盖，使用程序传入的默认级别。
type Env struct {
	Environment string // ENVIRONMENT
	Level       string // GRIDLOG_LEVEL，退回 LOG_LEVEL
	Dir         string // GRIDLOG_DIR
}

// FromEnv 读取环境变量覆盖项
// 环境级别覆盖优先于程序默认值（见 Init）。
func FromEnv() Env {
	v := viper.New()
	v.SetDefault("environment", DefaultEnvironment)
	v.SetDefault("dir", DefaultLogDir)
	_ = v.BindEnv("environment", "ENVIRONMENT")
	_ = v.BindEnv("level", "GRIDLOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("dir", "GRIDLOG_DIR")

	return Env{
		Environment: v.GetString("environment"),
		Level:       v.GetString("level"),
		Dir:         v.GetString("dir"),
	}
}

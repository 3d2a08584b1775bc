package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Log      Log      `mapstructure:"log"`
	Notify   Notify   `mapstructure:"notify"`
	Usage    Usage    `mapstructure:"usage"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN string `mapstructure:"dsn"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type Notify struct {
	// WebhookURL 用量告警投递地址，空串关闭告警
	WebhookURL string `mapstructure:"webhook_url"`
}

type Usage struct {
	// RetentionDays 请求流水保留天数
	RetentionDays int `mapstructure:"retention_days"`
}

// ==================== 加载 ====================

// Load 读取配置：config.yaml 可选，环境变量（PANEL_ 前缀）覆盖文件值
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("PANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 默认值
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("usage.retention_days", 30)

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件是允许的，全量走环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &cfg, nil
}

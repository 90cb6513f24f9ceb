package config

import "time"

// Config 调度器核心配置
type Config struct {
	Mode     string `yaml:"mode"`
	HTTPPort int    `yaml:"http_port"`
	Engine   struct {
		MaxTokens      int    `yaml:"max_tokens"`      // 并发准入令牌上限
		RefillInterval string `yaml:"refill_interval"` // 令牌桶重置间隔，如 "100ms"
		Workers        int    `yaml:"workers"`         // worker数量，0表示按CPU数自适应
		DefaultTimeout string `yaml:"default_timeout"` // 单个Job默认超时时间
	} `yaml:"engine"`
}

// ParseRefillInterval 解析令牌桶重置间隔，未配置时返回0（由引擎使用默认值）
func (c *Config) ParseRefillInterval() (time.Duration, error) {
	if c.Engine.RefillInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Engine.RefillInterval)
}

// ParseDefaultTimeout 解析默认超时时间，未配置时返回0（表示不限时）
func (c *Config) ParseDefaultTimeout() (time.Duration, error) {
	if c.Engine.DefaultTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Engine.DefaultTimeout)
}

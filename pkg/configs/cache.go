package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CacheConfig 笔记列表等只读接口的响应缓存配置.
type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	TTL          time.Duration `mapstructure:"ttl"`
	MaxBodyBytes int           `mapstructure:"max_body_bytes" rule:"min=0"`
}

func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("cache.max_body_bytes", 1<<20)
}

// SchedulerConfig 定时任务配置.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// SubscriptionSweepCron 清理过期会员的 cron 表达式
	SubscriptionSweepCron string `mapstructure:"subscription_sweep_cron"`
	// GaugeRefreshCron 刷新业务指标的 cron 表达式
	GaugeRefreshCron string `mapstructure:"gauge_refresh_cron"`
}

func (c *SchedulerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.subscription_sweep_cron", "15 0 * * *")
	v.SetDefault("scheduler.gauge_refresh_cron", "*/5 * * * *")
}

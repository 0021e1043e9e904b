package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultWeeklyLimit = 3                  // 免费用户每个窗口允许的下载次数
	DefaultQuotaWindow = 7 * 24 * time.Hour // 配额窗口长度
)

// QuotaConfig 免费用户下载配额配置.
type QuotaConfig struct {
	WeeklyLimit int           `mapstructure:"weekly_limit" rule:"min=0"`
	Window      time.Duration `mapstructure:"window"       rule:"gt=0"`
}

// GetWindow 返回配额窗口，未配置时使用默认值.
func (c *QuotaConfig) GetWindow() time.Duration {
	if c.Window <= 0 {
		return DefaultQuotaWindow
	}

	return c.Window
}

func (c *QuotaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("quota.weekly_limit", DefaultWeeklyLimit)
	v.SetDefault("quota.window", DefaultQuotaWindow)
}

// SummaryConfig 摘要生成配置.
type SummaryConfig struct {
	// AllowRegenerate 为 false 时已有摘要的笔记拒绝再次生成
	AllowRegenerate bool `mapstructure:"allow_regenerate"`
}

func (c *SummaryConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("summary.allow_regenerate", true)
}

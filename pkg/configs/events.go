package configs

import "github.com/spf13/viper"

// EventsConfig 控制领域事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关
	Note    NoteEventsConfig `mapstructure:"note"`
	Quota   QuotaEventConfig `mapstructure:"quota"`
}

// NoteEventsConfig 笔记领域的事件开关。
type NoteEventsConfig struct {
	Uploaded   bool `mapstructure:"uploaded"`
	Downloaded bool `mapstructure:"downloaded"`
	Deleted    bool `mapstructure:"deleted"`
	Verified   bool `mapstructure:"verified"`
	Rated      bool `mapstructure:"rated"`
	Summarized bool `mapstructure:"summarized"`
}

// QuotaEventConfig 配额领域的事件开关。
type QuotaEventConfig struct {
	Exceeded bool `mapstructure:"exceeded"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认关闭，未部署消息队列时不产生连接
	v.SetDefault("events.enabled", false)

	v.SetDefault("events.note.uploaded", true)
	v.SetDefault("events.note.downloaded", true)
	v.SetDefault("events.note.deleted", true)
	v.SetDefault("events.note.verified", true)
	v.SetDefault("events.note.rated", false)
	v.SetDefault("events.note.summarized", false)
	v.SetDefault("events.quota.exceeded", true)
}
